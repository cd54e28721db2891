package transcriber

import (
	"os"
	"path/filepath"
	"strings"
)

const modelBaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/"

// Model describes one downloadable whisper.cpp model preset.
type Model struct {
	Size        string `json:"size"`
	FileName    string `json:"fileName"`
	URL         string `json:"url"`
	SizeLabel   string `json:"sizeLabel"`
	Description string `json:"description"`
	Downloaded  bool   `json:"downloaded"`
	LocalPath   string `json:"localPath,omitempty"`
}

var catalog = []Model{
	{Size: "tiny.en", FileName: "ggml-tiny.en.bin", SizeLabel: "~75 MB", Description: "Fastest, English-only model."},
	{Size: "tiny", FileName: "ggml-tiny.bin", SizeLabel: "~75 MB", Description: "Fastest multilingual model."},
	{Size: "base.en", FileName: "ggml-base.en.bin", SizeLabel: "~142 MB", Description: "Balanced speed/quality, English-only."},
	{Size: "base", FileName: "ggml-base.bin", SizeLabel: "~142 MB", Description: "Balanced speed/quality, multilingual."},
	{Size: "small.en", FileName: "ggml-small.en.bin", SizeLabel: "~466 MB", Description: "Higher quality, English-only."},
	{Size: "small", FileName: "ggml-small.bin", SizeLabel: "~466 MB", Description: "Higher quality multilingual model."},
	{Size: "medium.en", FileName: "ggml-medium.en.bin", SizeLabel: "~1.5 GB", Description: "High quality, English-only."},
	{Size: "medium", FileName: "ggml-medium.bin", SizeLabel: "~1.5 GB", Description: "High quality multilingual model."},
	{Size: "large-v2", FileName: "ggml-large-v2.bin", SizeLabel: "~2.9 GB", Description: "Very high quality multilingual model."},
	{Size: "large-v3", FileName: "ggml-large-v3.bin", SizeLabel: "~2.9 GB", Description: "Latest large multilingual model."},
	{Size: "large-v3-turbo", FileName: "ggml-large-v3-turbo.bin", SizeLabel: "~1.6 GB", Description: "Faster large-v3 variant."},
}

// sizeAliases maps short model names to catalog sizes.
var sizeAliases = map[string]string{
	"large": "large-v3",
	"turbo": "large-v3-turbo",
}

// NormalizeSize lower-cases a model size and resolves aliases.
func NormalizeSize(size string) string {
	size = strings.ToLower(strings.TrimSpace(size))
	if alias, ok := sizeAliases[size]; ok {
		return alias
	}
	return size
}

// LookupModel returns the catalog entry for a model size.
func LookupModel(size string) (Model, bool) {
	size = NormalizeSize(size)
	for _, m := range catalog {
		if m.Size == size {
			m.URL = modelBaseURL + m.FileName
			return m, true
		}
	}
	return Model{}, false
}

// Models returns the catalog with local download status resolved against modelDir.
func Models(modelDir string) []Model {
	out := make([]Model, len(catalog))
	for i, m := range catalog {
		m.URL = modelBaseURL + m.FileName
		candidate := filepath.Join(modelDir, m.FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			m.Downloaded = true
			m.LocalPath = candidate
		}
		out[i] = m
	}
	return out
}
