package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/visibility-engine/internal/model"
)

func TestParseBrandArg(t *testing.T) {
	tests := []struct {
		name    string
		arg     string
		want    model.Brand
		wantErr bool
	}{
		{name: "name_only", arg: "MongoDB", want: model.Brand{Name: "MongoDB"}},
		{name: "name_and_domain", arg: "MongoDB=mongodb.com", want: model.Brand{Name: "MongoDB", Domain: "mongodb.com"}},
		{name: "trims_whitespace", arg: " Couchbase = couchbase.com ", want: model.Brand{Name: "Couchbase", Domain: "couchbase.com"}},
		{name: "empty", arg: "", wantErr: true},
		{name: "domain_without_name", arg: "=mongodb.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseBrandArg(tt.arg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
