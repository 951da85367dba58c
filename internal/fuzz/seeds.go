package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const maxSeedBytes = 64 << 10 // 64 KiB — ограничение для тестового корпуса

// baseSeeds cover each decoder branch at least once.
var baseSeeds = []string{
	``,
	`{}`,
	`{"targets":[]}`,
	`{"targets":[{"isStage":true,"name":"Stage","variables":{},"blocks":{}}]}`,
	`{"targets":[{"isStage":true,"name":"Stage","variables":{"v":["n",0]},"blocks":{
  "h":{"opcode":"event_whenflagclicked","next":"r","parent":null,"inputs":{},"fields":{},"shadow":false,"topLevel":true},
  "r":{"opcode":"control_repeat","next":null,"parent":"h","inputs":{"TIMES":[1,[6,"10"]],"SUBSTACK":[2,"c"]},"fields":{},"shadow":false,"topLevel":false},
  "c":{"opcode":"data_changevariableby","next":null,"parent":"r","inputs":{"VALUE":[3,"m",[4,""]]},"fields":{"VARIABLE":["n","v"]},"shadow":false,"topLevel":false},
  "m":{"opcode":"operator_mathop","next":null,"parent":"c","inputs":{"NUM":[3,[12,"n","v"],[4,""]]},"fields":{"OPERATOR":["abs",null]},"shadow":false,"topLevel":false},
  "loose":[12,"n","v",10,20]}}]}`,
	`{"targets":[{"isStage":false,"name":"S","variables":{},"blocks":{"x":{"opcode":"control_wait","next":"x","parent":null,"inputs":{"DURATION":[1,[5,"0"]]},"fields":{},"shadow":false,"topLevel":true}}}]}`,
}

func addCorpusSeeds(f *testing.F) {
	for _, s := range baseSeeds {
		f.Add([]byte(s))
	}
	root := filepath.Join("..", "..", "testdata")
	if _, err := os.Stat(root); err != nil {
		return
	}
	// проходим по дереву testdata, добавляем все *.json
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src))
		return nil
	})
}

func clampSeed(src []byte) []byte {
	if len(src) > maxSeedBytes {
		src = src[:maxSeedBytes]
	}
	return append([]byte(nil), src...)
}
