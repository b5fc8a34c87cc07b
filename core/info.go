package core

type NonSecretConf struct {
	DevMode             bool
	DisableStdoutLog    bool
	EnableFileLog       bool
	LogDir              string
	LogLevel            string
	LogRotationMaxDays  int
	GridDefaultRows     int
	GridDefaultColumns  int
	GridMaxRows         int
	GridMaxColumns      int
	GridMinColumns      int
	QueueMaxSize        int
	BackendTimeoutSec   int
	SimulateScriptPath  string
	PropagateScriptPath string
	GRPCBackendHost     string
	GRPCBackendPort     string
	PropagateCacheSize  int
}

type Info struct {
	Conf *NonSecretConf
}

var CurrentInfo *Info

func SetInfo(c *Conf) {
	conf := &NonSecretConf{
		DevMode:             c.DevMode,
		DisableStdoutLog:    c.DisableStdoutLog,
		EnableFileLog:       c.EnableFileLog,
		LogDir:              c.LogDir,
		LogLevel:            c.LogLevel,
		LogRotationMaxDays:  c.LogRotationMaxDays,
		GridDefaultRows:     c.GridDefaultRows,
		GridDefaultColumns:  c.GridDefaultColumns,
		GridMaxRows:         c.GridMaxRows,
		GridMaxColumns:      c.GridMaxColumns,
		GridMinColumns:      c.GridMinColumns,
		QueueMaxSize:        c.QueueMaxSize,
		BackendTimeoutSec:   c.BackendTimeoutSec,
		SimulateScriptPath:  c.SimulateScriptPath,
		PropagateScriptPath: c.PropagateScriptPath,
		GRPCBackendHost:     c.GRPCBackendHost,
		GRPCBackendPort:     c.GRPCBackendPort,
		PropagateCacheSize:  c.PropagateCacheSize,
	}

	CurrentInfo = &Info{
		Conf: conf,
	}
}
