package log

import (
	"fmt"

	"github.com/qgrid-team/qgrid/core"
	"go.uber.org/zap"
)

const VersionLogTaskName = "version_log"

type VersionLogTaskImpl struct {
	core.DefaultTaskImpl
}

func (v *VersionLogTaskImpl) Task() {
	zap.L().Debug(fmt.Sprintf("qgrid version:%s/user agent:%s", core.Version, core.UserAgent()))
}
