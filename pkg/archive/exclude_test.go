package archive_test

import (
	"testing"

	"github.com/arthur-debert/sshrelease/pkg/archive"
	"github.com/stretchr/testify/assert"
)

func TestExcluded(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		rel      string
		isDir    bool
		want     bool
	}{
		{"no patterns", nil, "web/index.php", false, false},
		{"exact file", []string{".env"}, ".env", false, true},
		{"bare name at depth", []string{".DS_Store"}, "web/img/.DS_Store", false, true},
		{"double star content", []string{"node_modules/**"}, "node_modules/left-pad/index.js", false, true},
		{"double star directory itself", []string{"node_modules/**"}, "node_modules", true, true},
		{"double star does not match file of same name", []string{"node_modules/**"}, "node_modules", false, false},
		{"single star stays in segment", []string{"var/*"}, "var/cache/prod", false, false},
		{"leading dot slash", []string{"./tests/**"}, "tests/unit/a_test.php", false, true},
		{"extension anywhere", []string{"**/*.log"}, "var/logs/dev.log", false, true},
		{"unrelated", []string{"node_modules/**", "*.log"}, "src/main.go", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, archive.Excluded(tt.patterns, tt.rel, tt.isDir))
		})
	}
}
