package config

// DefaultConfigFilename is the file searched for when no path is given.
const DefaultConfigFilename = "fogprov.yaml"

// Driver names.
const (
	DriverHetzner = "hetzner"
)

// Node store types.
const (
	StoreFile = "file"
	StoreS3   = "s3"
)

// Config holds the fogprov configuration.
type Config struct {
	// Driver selects the compute driver. Only "hetzner" ships today.
	Driver string `yaml:"driver"`

	// ComputeOptions is forwarded verbatim to the compute driver.
	ComputeOptions map[string]any `yaml:"compute_options"`

	NodeStore    NodeStoreConfig   `yaml:"node_store"`
	Convergence  ConvergenceConfig `yaml:"convergence"`
	NodeDefaults NodeDefaults      `yaml:"node_defaults"`

	// MetricsFile, if set, receives a Prometheus text dump after each command.
	MetricsFile string `yaml:"metrics_file"`
}

// NodeStoreConfig configures where node records are persisted.
type NodeStoreConfig struct {
	Type string `yaml:"type"`

	// Path is the directory used by the file store.
	Path string `yaml:"path"`

	// S3 store settings.
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// ConvergenceConfig configures the default convergence strategies.
type ConvergenceConfig struct {
	// InstallURL is the agent installer for Unix instances (a shell script).
	InstallURL string `yaml:"install_url"`
	// WindowsInstallURL is the agent installer for Windows instances (an MSI).
	WindowsInstallURL string `yaml:"windows_install_url"`
	// InstallArgs are passed to the Unix install script.
	InstallArgs []string `yaml:"install_args"`
	// CheckCommand skips installation when it exits zero on the instance.
	CheckCommand string `yaml:"check_command"`
	// AgentCommand runs the agent once on converge.
	AgentCommand string `yaml:"agent_command"`
	// KeyDir holds locally cached per-node client keys removed on destroy.
	KeyDir string `yaml:"key_dir"`
}

// NodeDefaults seeds records for nodes the store has never seen.
type NodeDefaults struct {
	BootstrapOptions map[string]any `yaml:"bootstrap_options"`
	IsWindows        bool           `yaml:"is_windows"`
	SSHUsername      string         `yaml:"ssh_username"`
}
