package messaging

import (
	"io"

	"github.com/goccy/go-json"
)

func marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func decode(r io.Reader, v any) error {
	return json.NewDecoder(io.LimitReader(r, maxBodyBytes)).Decode(v)
}

const maxBodyBytes = 1 << 20
