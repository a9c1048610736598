package exporters

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	ProtocolGRPC = "grpc"
	ProtocolHTTP = "http"

	defaultTimeout = 10 * time.Second
)

// OTLPConfig holds configuration for the OTLP exporter
type OTLPConfig struct {
	// Endpoint is host:port, or a collector URL such as "http://otel-collector:4318"
	Endpoint string

	// Protocol is "grpc" (default) or "http"; "http/protobuf" is accepted as "http"
	Protocol string

	// Insecure disables TLS. An http:// endpoint implies it.
	Insecure bool

	Timeout time.Duration
}

// Normalized resolves protocol aliases, URL endpoints and the default timeout
func (c OTLPConfig) Normalized() OTLPConfig {
	c.Protocol = strings.ToLower(strings.TrimSpace(c.Protocol))
	switch c.Protocol {
	case "":
		c.Protocol = ProtocolGRPC
	case "http/protobuf":
		c.Protocol = ProtocolHTTP
	}

	if u, err := url.Parse(c.Endpoint); err == nil && u.Host != "" {
		if u.Scheme == "http" {
			c.Insecure = true
		}
		c.Endpoint = u.Host
	}

	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	return c
}

// NewOTLPExporter creates an OTLP trace exporter for the configured protocol
func NewOTLPExporter(ctx context.Context, config OTLPConfig) (*otlptrace.Exporter, error) {
	config = config.Normalized()
	switch config.Protocol {
	case ProtocolGRPC:
		return newGRPCExporter(ctx, config)
	case ProtocolHTTP:
		return newHTTPExporter(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q (use %q or %q)", config.Protocol, ProtocolGRPC, ProtocolHTTP)
	}
}

func newGRPCExporter(ctx context.Context, config OTLPConfig) (*otlptrace.Exporter, error) {
	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(config.Endpoint),
		otlptracegrpc.WithTimeout(config.Timeout),
	}
	if config.Insecure {
		opts = append(opts,
			otlptracegrpc.WithInsecure(),
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
	}
	return otlptracegrpc.New(ctx, opts...)
}

func newHTTPExporter(ctx context.Context, config OTLPConfig) (*otlptrace.Exporter, error) {
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(config.Endpoint),
		otlptracehttp.WithTimeout(config.Timeout),
	}
	if config.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return otlptracehttp.New(ctx, opts...)
}
