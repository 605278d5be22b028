package config

// Configfile represents the structure of the importcache.yaml configuration file.
type Configfile struct {
	Root        string            `yaml:"root"`
	SearchPaths []string          `yaml:"searchPaths"`
	Variables   map[string]string `yaml:"variables"`
	Worker      WorkerDTO         `yaml:"worker"`
	Timeouts    TimeoutsDTO       `yaml:"timeouts"`
	Watch       WatchDTO          `yaml:"watch"`
}

// WorkerDTO represents the worker section.
type WorkerDTO struct {
	Command  []string `yaml:"command"`
	PoolSize *int     `yaml:"poolSize"`
}

// TimeoutsDTO represents the timeouts section. Values use time.ParseDuration syntax.
type TimeoutsDTO struct {
	Load     string `yaml:"load"`
	Resolve  string `yaml:"resolve"`
	Complete string `yaml:"complete"`
}

// WatchDTO represents the watch section.
type WatchDTO struct {
	Debounce string `yaml:"debounce"`
}
