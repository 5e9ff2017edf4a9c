package history_test

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/toolrelay/pkg/history"
	"github.com/papercomputeco/toolrelay/pkg/storage"
	"github.com/papercomputeco/toolrelay/pkg/storage/inmemory"
	"github.com/papercomputeco/toolrelay/pkg/storage/sqlite"
)

// failingStore rejects writes until fail is cleared.
type failingStore struct {
	*inmemory.Driver
	fail bool
}

func (f *failingStore) Put(ctx context.Context, key string, value []byte) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.Driver.Put(ctx, key, value)
}

var _ = Describe("Log", func() {
	var (
		ctx   context.Context
		store *inmemory.Driver
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = inmemory.NewDriver()
	})

	Describe("Load", func() {
		It("starts empty when nothing was persisted", func() {
			log := history.NewLog(store, "")
			Expect(log.Load(ctx)).To(Succeed())
			Expect(log.Turns()).To(BeEmpty())
		})

		It("normalizes legacy ai roles to assistant", func() {
			Expect(store.Put(ctx, history.DefaultKey,
				[]byte(`[{"role":"user","content":"hi"},{"role":"ai","content":"hello"}]`))).To(Succeed())

			log := history.NewLog(store, history.DefaultKey)
			Expect(log.Load(ctx)).To(Succeed())
			Expect(log.Turns()).To(Equal([]history.Turn{
				history.UserTurn("hi"),
				history.AssistantTurn("hello"),
			}))
		})

		It("reports a corrupt log", func() {
			Expect(store.Put(ctx, history.DefaultKey, []byte(`{not json`))).To(Succeed())

			log := history.NewLog(store, history.DefaultKey)
			err := log.Load(ctx)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("decode history"))
		})
	})

	Describe("Append", func() {
		It("round-trips turns in order through persistence", func() {
			log := history.NewLog(store, history.DefaultKey)
			Expect(log.Append(ctx, history.UserTurn("hi"))).To(Succeed())
			Expect(log.Append(ctx, history.AssistantTurn("hello"))).To(Succeed())

			reloaded := history.NewLog(store, history.DefaultKey)
			Expect(reloaded.Load(ctx)).To(Succeed())
			Expect(reloaded.Turns()).To(Equal([]history.Turn{
				{Role: history.RoleUser, Content: "hi"},
				{Role: history.RoleAssistant, Content: "hello"},
			}))
		})

		It("persists a JSON array of role/content objects", func() {
			log := history.NewLog(store, "chat")
			Expect(log.Append(ctx, history.UserTurn("hi"))).To(Succeed())

			data, err := store.Get(ctx, "chat")
			Expect(err).NotTo(HaveOccurred())

			var raw []map[string]string
			Expect(json.Unmarshal(data, &raw)).To(Succeed())
			Expect(raw).To(Equal([]map[string]string{{"role": "user", "content": "hi"}}))
		})

		It("continues a log from a previous session", func() {
			first := history.NewLog(store, history.DefaultKey)
			Expect(first.Append(ctx, history.UserTurn("one"))).To(Succeed())
			Expect(first.Append(ctx, history.AssistantTurn("two"))).To(Succeed())

			second := history.NewLog(store, history.DefaultKey)
			Expect(second.Load(ctx)).To(Succeed())
			Expect(second.Append(ctx, history.UserTurn("three"))).To(Succeed())

			third := history.NewLog(store, history.DefaultKey)
			Expect(third.Load(ctx)).To(Succeed())
			Expect(third.Len()).To(Equal(3))
			Expect(third.Turns()[2]).To(Equal(history.UserTurn("three")))
		})

		It("keeps a turn whose write failed and persists it with the next one", func() {
			fs := &failingStore{Driver: store, fail: true}
			log := history.NewLog(fs, history.DefaultKey)

			Expect(log.Append(ctx, history.UserTurn("lost?"))).NotTo(Succeed())
			Expect(log.Len()).To(Equal(1))

			fs.fail = false
			Expect(log.Append(ctx, history.AssistantTurn("no"))).To(Succeed())

			reloaded := history.NewLog(store, history.DefaultKey)
			Expect(reloaded.Load(ctx)).To(Succeed())
			Expect(reloaded.Turns()).To(Equal([]history.Turn{
				history.UserTurn("lost?"),
				history.AssistantTurn("no"),
			}))
		})

		It("writes the current log on Persist", func() {
			fs := &failingStore{Driver: store, fail: true}
			log := history.NewLog(fs, history.DefaultKey)

			Expect(log.Append(ctx, history.UserTurn("pending"))).NotTo(Succeed())
			Expect(log.Persist(ctx)).To(MatchError(ContainSubstring("disk full")))

			fs.fail = false
			Expect(log.Persist(ctx)).To(Succeed())

			raw, err := store.Get(ctx, history.DefaultKey)
			Expect(err).NotTo(HaveOccurred())
			Expect(raw).To(MatchJSON(`[{"role": "user", "content": "pending"}]`))
		})

		It("persists an empty log as an empty array", func() {
			log := history.NewLog(store, history.DefaultKey)
			Expect(log.Persist(ctx)).To(Succeed())

			raw, err := store.Get(ctx, history.DefaultKey)
			Expect(err).NotTo(HaveOccurred())
			Expect(raw).To(MatchJSON(`[]`))
		})

		It("returns copies that callers cannot mutate", func() {
			log := history.NewLog(store, history.DefaultKey)
			Expect(log.Append(ctx, history.UserTurn("hi"))).To(Succeed())

			turns := log.Turns()
			turns[0].Content = "changed"
			Expect(log.Turns()[0].Content).To(Equal("hi"))
		})
	})

	Describe("with the sqlite driver", func() {
		It("survives a reopened database", func() {
			dbPath := filepath.Join(GinkgoT().TempDir(), "history.db")

			d, err := sqlite.NewDriver(ctx, dbPath)
			Expect(err).NotTo(HaveOccurred())
			log := history.NewLog(d, history.DefaultKey)
			Expect(log.Append(ctx, history.UserTurn("hi"))).To(Succeed())
			Expect(log.Append(ctx, history.AssistantTurn("hello"))).To(Succeed())
			Expect(d.Close()).To(Succeed())

			var s storage.Store
			s, err = sqlite.NewDriver(ctx, dbPath)
			Expect(err).NotTo(HaveOccurred())
			defer s.Close()

			reloaded := history.NewLog(s, history.DefaultKey)
			Expect(reloaded.Load(ctx)).To(Succeed())
			Expect(reloaded.Turns()).To(Equal([]history.Turn{
				history.UserTurn("hi"),
				history.AssistantTurn("hello"),
			}))
		})
	})
})
