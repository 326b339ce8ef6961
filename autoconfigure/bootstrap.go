package autoconfigure

import (
	"context"
	"fmt"

	aadfilter "github.com/aadauth/go-aad-filter"
	"github.com/aadauth/go-aad-filter/config"
	"github.com/aadauth/go-aad-filter/telemetry"
)

// Bootstrap loads the configuration, sets up telemetry according to
// allow-telemetry and runs ProvideAuthFilter.
//
// The returned proxy is never nil on success and must be closed by the
// caller to flush pending events. WithTelemetry is ignored: the proxy is
// the tracker.
//
// Example:
//
//	loader, err := config.NewViperLoader(config.WithEnvFiles(".env"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pipeline := autoconfigure.NewHTTPPipeline(mux)
//	filter, proxy, err := autoconfigure.Bootstrap(ctx, loader,
//	    autoconfigure.Environment{WebApplication: true},
//	    autoconfigure.WithPipelines(pipeline),
//	    autoconfigure.WithFilterOptions(aadfilter.WithValidator(v)),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer proxy.Close(context.Background())
func Bootstrap(ctx context.Context, loader config.Loader, env Environment, opts ...Option) (*aadfilter.Filter, *telemetry.Proxy, error) {
	props, endpoints, err := loader.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("could not load aad configuration: %w", err)
	}

	c, err := New(opts...)
	if err != nil {
		return nil, nil, err
	}

	sink := c.sink
	if sink == nil {
		sink = telemetry.NewLogSink(nil)
	}
	proxy, err := telemetry.NewProxy(props.AllowTelemetry, sink, telemetry.WithLogger(c.logger))
	if err != nil {
		return nil, nil, fmt.Errorf("could not create telemetry proxy: %w", err)
	}
	c.tracker = proxy

	f, err := c.ProvideAuthFilter(env, props, endpoints)
	if err != nil && f == nil {
		if cerr := proxy.Close(ctx); cerr != nil {
			c.logger.Warnf("telemetry: could not close proxy: %v", cerr)
		}
		return nil, nil, err
	}

	return f, proxy, err
}
