package mcptool_test

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/toolrelay/pkg/artifact"
	"github.com/papercomputeco/toolrelay/pkg/conversation"
	"github.com/papercomputeco/toolrelay/pkg/dispatch"
	"github.com/papercomputeco/toolrelay/pkg/history"
	"github.com/papercomputeco/toolrelay/pkg/mcptool"
	"github.com/papercomputeco/toolrelay/pkg/storage/inmemory"
	"github.com/papercomputeco/toolrelay/pkg/tool"
)

type stubClassifier struct{}

func (stubClassifier) Classify(_ context.Context, prompt string) (tool.ID, error) {
	return tool.Local(prompt), nil
}

type stubDispatcher struct{}

func (stubDispatcher) Dispatch(_ context.Context, id tool.ID, prompt string) (*dispatch.Response, error) {
	if id == tool.DownloadPDF {
		return nil, &dispatch.Failure{Tool: id, Message: dispatch.PDFFailed, Err: errors.New("no results")}
	}
	return &dispatch.Response{ID: uuid.New(), Tool: id, Status: dispatch.StatusSuccess, Payload: "re: " + prompt}, nil
}

var _ = Describe("MCP server", func() {
	var (
		ctx     context.Context
		log     *history.Log
		session *mcp.ClientSession
	)

	BeforeEach(func() {
		ctx = context.Background()
		log = history.NewLog(inmemory.NewDriver(), history.DefaultKey)
		logger := zap.NewNop()
		controller := conversation.New(log, stubClassifier{}, stubDispatcher{},
			artifact.NewDirSaver(GinkgoT().TempDir(), logger), logger)

		server := mcptool.NewServer(controller, "test", logger)
		clientTransport, serverTransport := mcp.NewInMemoryTransports()

		_, err := server.Connect(ctx, serverTransport, nil)
		Expect(err).NotTo(HaveOccurred())

		client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
		session, err = client.Connect(ctx, clientTransport, nil)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(session.Close()).To(Succeed())
	})

	It("lists the routing tools", func() {
		res, err := session.ListTools(ctx, &mcp.ListToolsParams{})
		Expect(err).NotTo(HaveOccurred())

		names := []string{}
		for _, t := range res.Tools {
			names = append(names, t.Name)
		}
		Expect(names).To(ConsistOf("route_prompt", "read_history"))
	})

	It("routes a prompt and records the exchange", func() {
		res, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name:      "route_prompt",
			Arguments: map[string]any{"prompt": "hello"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.IsError).To(BeFalse())
		Expect(res.Content).To(HaveLen(1))
		Expect(res.Content[0].(*mcp.TextContent).Text).To(Equal("re: hello"))

		Expect(log.Turns()).To(Equal([]history.Turn{
			history.UserTurn("hello"),
			history.AssistantTurn("re: hello"),
		}))
	})

	It("flags failed submissions as tool errors", func() {
		res, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name:      "route_prompt",
			Arguments: map[string]any{"prompt": "download the pdf"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.IsError).To(BeTrue())
		Expect(res.Content[0].(*mcp.TextContent).Text).To(Equal("❌ Failed to download PDF."))
	})

	It("reports empty prompts as tool errors without recording them", func() {
		res, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name:      "route_prompt",
			Arguments: map[string]any{"prompt": "  "},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.IsError).To(BeTrue())
		Expect(log.Len()).To(Equal(0))
	})

	It("reads the most recent history turns", func() {
		_, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name:      "route_prompt",
			Arguments: map[string]any{"prompt": "hello"},
		})
		Expect(err).NotTo(HaveOccurred())

		res, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name:      "read_history",
			Arguments: map[string]any{"limit": 1},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.IsError).To(BeFalse())

		structured, ok := res.StructuredContent.(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(structured["turns"]).To(HaveLen(1))
	})
})
