// gatewayd is a reverse-proxy gateway that translates between the OpenAI,
// Anthropic, and Gemini wire dialects and routes each request to a
// configured upstream endpoint by weighted, health-aware selection.
//
// Usage:
//
//	# Start the gateway with the default config.yaml
//	gatewayd run
//
//	# Start against an explicit config, with an auth token required
//	gatewayd run --config /etc/gatewayd/config.yaml --token secret
//
//	# Validate config and probe every configured endpoint without serving
//	gatewayd run --check
//
//	# Show version information
//	gatewayd version
package main

func main() {
	Execute()
}
