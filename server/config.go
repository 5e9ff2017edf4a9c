package server

// Config is the HTTP front end configuration.
type Config struct {
	// Address to listen on (e.g., ":8090")
	ListenAddr string
}
