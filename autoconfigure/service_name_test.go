package autoconfigure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServiceName(t *testing.T) {
	tests := []struct {
		namespace string
		want      string
		wantOK    bool
	}{
		{namespace: "a.b.c", want: "b", wantOK: true},
		{namespace: "a.b", want: "a", wantOK: true},
		{namespace: "a", wantOK: false},
		{namespace: "", wantOK: false},
		{namespace: "com.microsoft.azure.spring.autoconfigure.aad", want: "autoconfigure", wantOK: true},
		{namespace: "github.com/aadauth/go-aad-filter/autoconfigure", want: "go-aad-filter", wantOK: true},
		{namespace: "a..b", want: "a", wantOK: true},
	}

	for _, test := range tests {
		t.Run(test.namespace, func(t *testing.T) {
			got, ok := ServiceName(test.namespace)
			assert.Equal(t, test.wantOK, ok)
			assert.Equal(t, test.want, got)
		})
	}
}
