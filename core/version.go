package core

import (
	"fmt"

	"go.uber.org/zap"
)

var Version string

const NoVersion = "no_version_info"

func SetVersion(c *Conf, versionByBuildFlag string) {
	if versionByBuildFlag != "" {
		Version = versionByBuildFlag
	} else if c.Version != "" {
		Version = c.Version
	} else {
		Version = NoVersion
	}
	zap.L().Info(fmt.Sprintf("qgrid version is %s", Version))
}

// UserAgent identifies this server towards external backends.
func UserAgent() string {
	if Version == "" {
		return "qgrid/" + NoVersion
	}
	return "qgrid/" + Version
}
