package core

type Conf struct {
	Version             string `long:"version" description:"version of qgrid server" env:"QGRID_VERSION"`
	DevMode             bool   `long:"dev-mode" description:"run in dev mode" env:"QGRID_DEV_MODE"`
	DisableStdoutLog    bool   `long:"disable-stdout-log" description:"do not log in standard output" env:"QGRID_DISABLE_STDOUT_LOG"`
	EnableFileLog       bool   `long:"enable-file-log" description:"enable log in file" env:"QGRID_ENABLE_FILE_LOG"`
	LogDir              string `long:"log-dir" description:"rotating log file dir" default:"./shares/logs" env:"QGRID_LOG_DIR"`
	LogLevel            string `long:"log-level" description:"log level" default:"info" choice:"debug" choice:"info" choice:"warn" choice:"error" env:"QGRID_LOG_LEVEL"`
	LogRotationMaxDays  int    `long:"log-rotation-max-days" description:"max days of log rotation" default:"7" env:"QGRID_LOG_ROTATION_MAX_DAYS"`
	GridDefaultRows     int    `long:"grid-default-rows" description:"wires of a new grid" default:"2" env:"QGRID_GRID_DEFAULT_ROWS"`
	GridDefaultColumns  int    `long:"grid-default-columns" description:"layers of a new grid" default:"10" env:"QGRID_GRID_DEFAULT_COLUMNS"`
	GridMaxRows         int    `long:"grid-max-rows" description:"max wires of a grid" default:"8" env:"QGRID_GRID_MAX_ROWS"`
	GridMaxColumns      int    `long:"grid-max-columns" description:"max layers of a grid" default:"20" env:"QGRID_GRID_MAX_COLUMNS"`
	GridMinColumns      int    `long:"grid-min-columns" description:"min layers of a grid" default:"1" env:"QGRID_GRID_MIN_COLUMNS"`
	QueueMaxSize        int    `long:"queue-max-size" description:"max pending backend submissions" default:"100" env:"QGRID_QUEUE_MAX_SIZE"`
	BackendTimeoutSec   int    `long:"backend-timeout-sec" description:"timeout of a simulate/propagate call in seconds" default:"30" env:"QGRID_BACKEND_TIMEOUT_SEC"`
	PythonPath          string `long:"python-path" description:"python interpreter for subprocess backends" default:"python3" env:"QGRID_PYTHON_PATH"`
	SimulateScriptPath  string `long:"simulate-script-path" description:"simulation script path" default:"./backend/simulation.py" env:"QGRID_SIMULATE_SCRIPT_PATH"`
	PropagateScriptPath string `long:"propagate-script-path" description:"error propagation script path" default:"./backend/error_step_propagator.py" env:"QGRID_PROPAGATE_SCRIPT_PATH"`
	GRPCBackendHost     string `long:"grpc-backend-host" description:"gRPC backend address host" default:"localhost" env:"QGRID_GRPC_BACKEND_HOST"`
	GRPCBackendPort     string `long:"grpc-backend-port" description:"gRPC backend address port" default:"50061" env:"QGRID_GRPC_BACKEND_PORT"`
	PropagateCacheSize  int    `long:"propagate-cache-size" description:"entries of the propagation result cache, 0 disables it" default:"128" env:"QGRID_PROPAGATE_CACHE_SIZE"`
	SettingPath         string `long:"setting-path" description:"setting file path" default:"./setting/setting.toml" env:"QGRID_SETTING_PATH"`
}
