package link

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelID(t *testing.T) {
	tests := []struct {
		in  string
		out string
	}{
		{"UC5XPnUk8Vvv_pWslhwom6Og", "UC5XPnUk8Vvv_pWslhwom6Og"},
		{"  UC5XPnUk8Vvv_pWslhwom6Og ", "UC5XPnUk8Vvv_pWslhwom6Og"},
		{"https://www.youtube.com/channel/UC5XPnUk8Vvv_pWslhwom6Og", "UC5XPnUk8Vvv_pWslhwom6Og"},
		{"https://www.youtube.com/channel/UCrlakW-ewUT8sOod6Wmzyow/videos", "UCrlakW-ewUT8sOod6Wmzyow"},
		{"youtube.com/channel/UC2yTVSttx7lxAOAzx1opjoA", "UC2yTVSttx7lxAOAzx1opjoA"},
	}

	for _, tt := range tests {
		id, err := ChannelID(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.out, id)
	}
}

func TestChannelID_Invalid(t *testing.T) {
	tests := []string{
		"",
		"   ",
		"https://www.youtube.com/watch?v=rbCbho7aLYw",
		"https://www.youtube.com/playlist?list=PLCB9F975ECF01953C",
		"https://www.youtube.com/channel/",
		"https://vimeo.com/channels/staffpicks",
		"example.com/channel/123",
	}

	for _, tt := range tests {
		_, err := ChannelID(tt)
		assert.Error(t, err, tt)
	}
}
