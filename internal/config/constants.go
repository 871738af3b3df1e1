package config

const SourceFileExt = ".arr"

// SourceFileExtensions are all recognized source file extensions
var SourceFileExtensions = []string{".arr"}

// DefaultConfigFile is looked up in the working directory when no
// --config flag is given.
const DefaultConfigFile = "pyretscan.yaml"

// ConfigEnvVar overrides the config file location.
const ConfigEnvVar = "PYRETSCAN_CONFIG"

const DefaultListenAddr = "127.0.0.1:7411"

// Service identity of the gRPC surface
const (
	ProtoFileName  = "pyretscan/v1/scanner.proto"
	ServiceName    = "pyretscan.v1.Scanner"
	ScanMethod     = "Scan"
	TokenizeMethod = "Tokenize"
)
