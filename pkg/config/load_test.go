package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
model_list:
  - model_name: gpt4
    llm_params:
      api_type: openai
      api_key: sk-test
      api_base: https://api.openai.com/v1
router_settings:
  strategy: roundrobin
  model_groups:
    - name: default
      model_members:
        - name: gpt4
          weight: 100
`

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadConfigParsesValidFile(t *testing.T) {
	path := writeTempConfig(t, sampleYAML)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfg.ModelList) != 1 || cfg.ModelList[0].ModelName != "gpt4" {
		t.Errorf("unexpected ModelList: %+v", cfg.ModelList)
	}
}

func TestLoadConfigMissingFileErrors(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/path/config.yaml"); err == nil {
		t.Errorf("expected an error for a missing file")
	}
}

func TestLoadConfigRejectsUnknownFields(t *testing.T) {
	path := writeTempConfig(t, sampleYAML+"\nbogus_top_level_field: true\n")
	if _, err := LoadConfig(path); err == nil {
		t.Errorf("expected an error for an unknown top-level field")
	}
}

func TestLoadConfigRejectsInvalidConfig(t *testing.T) {
	path := writeTempConfig(t, "model_list: []\n")
	if _, err := LoadConfig(path); err == nil {
		t.Errorf("expected validation to reject an empty model_list")
	}
}
