package platform

import (
	"testing"
)

// FuzzParseConfig fuzzes YAML config parsing.
func FuzzParseConfig(f *testing.F) {
	f.Add(`apiVersion: v1
server:
  address: ":3000"`)

	f.Add(`apiVersion: unknown-version`)

	f.Add(`session:
  store: postgres
  ttl: 24h
database:
  dsn: postgres://localhost/stepwise`)

	f.Add(`storage:
  provider: s3
  s3:
    bucket: stepwise-logs
    use_path_style: true`)

	f.Add(`auth:
  seed_users:
    - username: alice
      password: secret
      user_id: user_001`)

	f.Add(`{}`)
	f.Add(`null`)
	f.Add(`timeouts: {storage: nonsense}`)
	f.Add(`activity:
  queue_size: [1, 2, 3]`) // wrong type

	f.Fuzz(func(_ *testing.T, yamlContent string) {
		// Should never panic
		cfg, err := ParseConfig([]byte(yamlContent))
		if err != nil {
			return
		}
		_ = cfg.Validate()
	})
}

// FuzzExpandEnvVars fuzzes environment variable expansion in config.
func FuzzExpandEnvVars(f *testing.F) {
	f.Add("${HOME}")
	f.Add("${NONEXISTENT_VAR}")
	f.Add("${}")
	f.Add("$HOME")
	f.Add("prefix${VAR}suffix")
	f.Add("${VAR1}${VAR2}")
	f.Add("no-vars-here")
	f.Add("${unterminated")

	f.Fuzz(func(_ *testing.T, input string) {
		// Should never panic
		_ = expandEnvVars(input)
	})
}
