package redis

import "strings"

type CfgRedis struct {
	UseCluster           bool
	EnableTLS            bool
	RedisHost            string
	RedisPort            string
	RedisPassword        string
	RedisDB              int
	RedisClusterNode     string
	RedisClusterPassword string
}

type RedisConfig struct {
	UseCluster bool
	EnableTLS  bool
	Host       string
	Port       string
	Password   string
	DB         int

	ClusterHosts    []string
	ClusterPassword string
}

var RedisConfigData RedisConfig

func LoadConfig(config *CfgRedis) {
	RedisConfigData = RedisConfig{
		UseCluster:      config.UseCluster,
		EnableTLS:       config.EnableTLS,
		Host:            config.RedisHost,
		Port:            config.RedisPort,
		Password:        config.RedisPassword,
		DB:              config.RedisDB,
		ClusterHosts:    strings.Split(config.RedisClusterNode, ";"),
		ClusterPassword: config.RedisClusterPassword,
	}
}
