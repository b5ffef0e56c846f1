package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestPermanent(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"bad password", &pq.Error{Code: "28P01"}, true},
		{"wrapped auth", fmt.Errorf("ping: %w", &pq.Error{Code: "28000"}), true},
		{"missing database", &pq.Error{Code: "3D000"}, true},
		{"starting up", &pq.Error{Code: "57P03"}, false},
		{"network", errors.New("dial tcp: connection refused"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := permanent(tt.err); got != tt.want {
				t.Errorf("permanent = %v, want %v", got, tt.want)
			}
		})
	}
}
