package main

// This example demonstrates the usage of krefresh.
// Usage:
// - 1. Start a config source, e.g. Consul, Etcd, Nacos (or create a config directory).
// - 2. Populate config 'example-dynamic.yaml' with value like 'db: {address: localhost:3306}'
// - 3. Start the example, e.g.:
// 		- `go run ./cmd/krefresh-example --krefresh-type=nacos --krefresh-addr='localhost:8848' --krefresh-app-name=example --krefresh-templates='{}-dynamic.yaml'`
// 		- `go run ./cmd/krefresh-example --krefresh-type=file --krefresh-addr=/tmp/conf --krefresh-app-name=example --krefresh-templates='{}-dynamic.yaml'`
// - 4. Observe log output, metrics are served on ':9090/metrics' by default
// - 5. Update config content and observe log output
