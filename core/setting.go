package core

import (
	"bytes"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/qgrid-team/qgrid/common"
	"go.uber.org/zap"
)

var globalSetting *Setting

// Setting holds the [com.*] component tables and the [run_group.*] tables of setting.toml.
type Setting struct {
	ComponentSetting map[string]interface{} `toml:"com,omitempty"`
	RunGroupSetting  map[string]interface{} `toml:"run_group,omitempty"`
}

func ResetSetting() {
	globalSetting = newSetting()
}

func RegisterSetting(settingName string, settingVal interface{}) {
	if globalSetting == nil {
		ResetSetting()
	}
	globalSetting.registerSetting(settingName, settingVal)
}

func ParseSettingFromPath(settingsPath string) error {
	tomlString, err := common.ReadSettingsFile(settingsPath)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to read setting file/reason:%s", err))
		return err
	}
	return globalSetting.parseSetting(tomlString)
}

func GetGlobalSetting() *Setting {
	return globalSetting
}

func GetComponentSetting(name string) (interface{}, bool) {
	if globalSetting == nil {
		zap.L().Error("Setting is not initialized")
		return nil, false
	}
	val, ok := globalSetting.ComponentSetting[name]
	return val, ok
}

// DecodeComponentSetting fills out with the component table called name.
// Keys missing in the file keep the values already set in out.
func DecodeComponentSetting(name string, out interface{}) error {
	v, ok := GetComponentSetting(name)
	if !ok {
		return fmt.Errorf("%s setting is not found", name)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(v); err != nil {
		zap.L().Error(fmt.Sprintf("failed to encode %s setting/reason:%s", name, err))
		return err
	}
	if _, err := toml.Decode(buf.String(), out); err != nil {
		zap.L().Error(fmt.Sprintf("failed to decode %s setting/reason:%s", name, err))
		return err
	}
	return nil
}

func newSetting() *Setting {
	return &Setting{
		ComponentSetting: make(map[string]interface{}),
		RunGroupSetting:  make(map[string]interface{}),
	}
}

func (s *Setting) registerSetting(settingName string, settingVal interface{}) {
	s.ComponentSetting[settingName] = settingVal
}

func (s *Setting) parseSetting(tomlString string) error {
	_, err := toml.Decode(tomlString, s)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to parse setting/reason:%s", err))
		return err
	}
	zap.L().Debug(fmt.Sprintf("Setting is %v", s.ComponentSetting))
	return nil
}
