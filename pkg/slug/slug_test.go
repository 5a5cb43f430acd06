// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package slug_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/farmgate/pkg/slug"
)

func TestFrom(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Fresh Tomatoes", "fresh-tomatoes"},
		{"Đà Lạt Strawberries!", "da-lat-strawberries"},
		{"  --Crème   brûlée--  ", "creme-brulee"},
		{"Farm #42: Q&A", "farm-42-q-a"},
		{"日本", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, slug.From(tt.in))
		})
	}
}
