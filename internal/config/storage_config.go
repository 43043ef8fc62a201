package config

const (
	databaseDSNEnvVar = "DATABASE_DSN"
	redisAddrEnvVar   = "REDIS_ADDR"
	redisPassEnvVar   = "REDIS_PASSWORD"
)

// StorageConfig selects the persistence backends. An empty DSN keeps
// everything in memory.
type StorageConfig interface {
	GetDatabaseDSN() string
	GetRedisAddr() string
	GetRedisPassword() string
}

type Storage struct{}

var _ StorageConfig = Storage{}

func (Storage) GetDatabaseDSN() string {
	return GetEnv(databaseDSNEnvVar, "")
}

func (Storage) GetRedisAddr() string {
	return GetEnv(redisAddrEnvVar, "")
}

func (Storage) GetRedisPassword() string {
	return GetEnv(redisPassEnvVar, "")
}
