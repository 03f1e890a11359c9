package secret

import (
	"os"
	"strings"
)

const envPrefix = "STATIONCSV_SECRET_"

// EnvStore reads secrets from environment variables named
// STATIONCSV_SECRET_<KEY>, with the key upper-cased and dashes or dots
// turned into underscores.
type EnvStore struct{}

func NewEnvStore() *EnvStore {
	return &EnvStore{}
}

func envName(key string) string {
	r := strings.NewReplacer("-", "_", ".", "_")
	return envPrefix + strings.ToUpper(r.Replace(key))
}

func (EnvStore) Set(key string, value []byte) error {
	return os.Setenv(envName(key), string(value))
}

func (EnvStore) Get(key string) ([]byte, error) {
	v, ok := os.LookupEnv(envName(key))
	if !ok {
		return nil, nil
	}
	return []byte(v), nil
}

func (EnvStore) Delete(key string) error {
	return os.Unsetenv(envName(key))
}

// Chain looks a secret up in each store in order and returns the first hit.
// Writes go to the first store.
type Chain []SecretStore

func (c Chain) Set(key string, value []byte) error {
	if len(c) == 0 {
		return nil
	}
	return c[0].Set(key, value)
}

func (c Chain) Get(key string) ([]byte, error) {
	for _, s := range c {
		v, err := s.Get(key)
		if err != nil {
			return nil, err
		}
		if len(v) > 0 {
			return v, nil
		}
	}
	return nil, nil
}

func (c Chain) Delete(key string) error {
	for _, s := range c {
		if err := s.Delete(key); err != nil {
			return err
		}
	}
	return nil
}
