package options

import "github.com/spf13/pflag"

// ServerOptions configures the HTTP listener that exposes the orchestrator's
// push-channel and callable contract.
type ServerOptions struct {
	BindAddress string `json:"bind-address" mapstructure:"bind-address"`
	BindPort    int    `json:"bind-port" mapstructure:"bind-port"`
	BearerToken string `json:"bearer-token" mapstructure:"bearer-token"`
	EnablePprof bool   `json:"enable-pprof" mapstructure:"enable-pprof"`
}

func NewServerOptions() *ServerOptions {
	return &ServerOptions{
		BindAddress: "127.0.0.1",
		BindPort:    11788,
	}
}

func (o *ServerOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.BindAddress, "server.bind-address", o.BindAddress, "Address the HTTP server binds to.")
	fs.IntVar(&o.BindPort, "server.bind-port", o.BindPort, "Port the HTTP server binds to.")
	fs.StringVar(&o.BearerToken, "server.bearer-token", o.BearerToken, "If set, require this bearer token on every request.")
	fs.BoolVar(&o.EnablePprof, "server.enable-pprof", o.EnablePprof, "Expose net/http/pprof routes under /debug/pprof.")
}
