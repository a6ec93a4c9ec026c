// Package remoteshell implements the on-demand interactive shell
// tunnel (C8): a single persistent framed websocket session carrying a
// pseudoterminal-backed shell. Grounded on the dependency pair the
// retrieval pack pulls in together (hashmap-kz-katomik/go.mod lists
// both gorilla/websocket and golang.org/x/sys as requirements) even
// though neither repo has a standalone usage site to imitate line for
// line; the frame and pump shapes below follow the wire contract
// described for this component rather than copying a pack file.
package remoteshell

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

const protoVersion = 1

// frameType names the three message kinds the session understands.
type frameType string

const (
	frameNew   frameType = "new"
	frameShell frameType = "shell"
	frameStop  frameType = "stop"
)

// header is the fixed envelope every frame carries.
type header struct {
	Proto int    `msgpack:"proto"`
	Typ   string `msgpack:"typ"`
	Sid   string `msgpack:"sid"`
}

// frame is the self-describing binary map exchanged over the wire:
// hdr/props/body as three top-level keys.
type frame struct {
	Hdr   header         `msgpack:"hdr"`
	Props map[string]any `msgpack:"props"`
	Body  []byte         `msgpack:"body"`
}

func encodeFrame(f frame) ([]byte, error) {
	data, err := msgpack.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return data, nil
}

func decodeFrame(data []byte) (frame, error) {
	var f frame
	if err := msgpack.Unmarshal(data, &f); err != nil {
		return frame{}, fmt.Errorf("decode frame: %w", err)
	}
	return f, nil
}

func newStatusFrame(sid string) frame {
	return frame{Hdr: header{Proto: protoVersion, Typ: string(frameNew), Sid: sid}, Props: map[string]any{"status": 1}}
}

func stopStatusFrame(sid string) frame {
	return frame{Hdr: header{Proto: protoVersion, Typ: string(frameStop), Sid: sid}, Props: map[string]any{"status": 1}}
}

func shellDataFrame(sid string, body []byte) frame {
	return frame{Hdr: header{Proto: protoVersion, Typ: string(frameShell), Sid: sid}, Props: map[string]any{"status": 1}, Body: body}
}
