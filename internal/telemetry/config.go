package telemetry

// Config holds the OpenTelemetry tracing configuration.
type Config struct {
	// Enabled indicates whether tracing is enabled. Disabled tracing
	// installs a no-op tracer; spans still start and end, they just go
	// nowhere.
	Enabled bool

	// ServiceName is the name reported to the trace backend.
	ServiceName string

	// ServiceVersion is the version of the service.
	ServiceVersion string

	// Endpoint is the OTLP gRPC endpoint (host:port, e.g. "localhost:4317").
	Endpoint string

	// Insecure disables TLS on the exporter connection.
	Insecure bool

	// SampleRate is the trace sampling rate in [0.0, 1.0]; 1.0 samples
	// every syscall span.
	SampleRate float64
}

// DefaultConfig returns the disabled-by-default configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:        false,
		ServiceName:    "velin",
		ServiceVersion: "dev",
		Endpoint:       "localhost:4317",
		Insecure:       true,
		SampleRate:     1.0,
	}
}
