package node

import "github.com/imamik/fogprov/internal/config"

func configFile(dir string) config.NodeStoreConfig {
	return config.NodeStoreConfig{Type: config.StoreFile, Path: dir}
}

func configType(t string) config.NodeStoreConfig {
	return config.NodeStoreConfig{Type: t}
}
