// Package config loads server and pool settings.
//
// Settings come from three layers, later layers overriding earlier ones:
//
//  1. Default() values (127.0.0.1:7878, 4 workers, assets/hello.html,
//     assets/404.html, 5s sleep delay).
//  2. An optional YAML or JSON file read by LoadFile and converted with
//     ToConfig.
//  3. YARWS_* variables from a .env file and the process environment,
//     collected by Environ and applied with ApplyEnv.
//
// Example file:
//
//	server:
//	  addr: 0.0.0.0:7878
//	  max_connections: 256
//	  sleep_delay: 2s
//	  read_timeout: 30s
//	  assets_dir: ./assets
//	pool:
//	  workers: 8
//	log:
//	  level: debug
//	metrics:
//	  addr: 127.0.0.1:9090
package config
