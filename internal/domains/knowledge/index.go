package knowledge

import (
	"bufio"
	"math/rand"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Snippet is a locatable piece of indexed content: the text plus the time
// window in the source video it came from.
type Snippet struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Index is the searchable form of one media entry's transcript.
type Index struct {
	Label  string    `json:"label"`
	Chunks []Snippet `json:"chunks"`
}

var srtTimeRe = regexp.MustCompile(`(\d+):(\d\d):(\d\d)[,.](\d+)\s*-->\s*(\d+):(\d\d):(\d\d)[,.](\d+)`)

// BuildIndex reads a transcript file and chunks it into locatable snippets.
// SRT subtitle files keep their own timings; plain text falls back to
// estimated timings from word position.
func BuildIndex(label, transcriptPath string) (*Index, error) {
	f, err := os.Open(transcriptPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	idx := &Index{Label: label}
	if looksLikeSRT(lines) {
		idx.Chunks = parseSRT(lines)
	} else {
		idx.Chunks = chunkPlainText(lines)
	}
	return idx, nil
}

func looksLikeSRT(lines []string) bool {
	for _, line := range lines {
		if srtTimeRe.MatchString(line) {
			return true
		}
	}
	return false
}

func parseSRT(lines []string) []Snippet {
	var chunks []Snippet
	var current *Snippet
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if m := srtTimeRe.FindStringSubmatch(line); m != nil {
			if current != nil && current.Text != "" {
				chunks = append(chunks, *current)
			}
			current = &Snippet{
				Start: srtSeconds(m[1], m[2], m[3], m[4]),
				End:   srtSeconds(m[5], m[6], m[7], m[8]),
			}
			continue
		}
		if current == nil || line == "" {
			continue
		}
		if _, err := strconv.Atoi(line); err == nil && current.Text == "" {
			// bare cue number
			continue
		}
		if current.Text != "" {
			current.Text += " "
		}
		current.Text += line
	}
	if current != nil && current.Text != "" {
		chunks = append(chunks, *current)
	}
	return chunks
}

func srtSeconds(h, m, s, frac string) float64 {
	hv, _ := strconv.Atoi(h)
	mv, _ := strconv.Atoi(m)
	sv, _ := strconv.Atoi(s)
	fv, _ := strconv.ParseFloat("0."+frac, 64)
	return float64(hv*3600+mv*60+sv) + fv
}

// chunkPlainText splits untimed transcripts into fixed word windows with
// timings estimated at a typical speaking rate.
func chunkPlainText(lines []string) []Snippet {
	const wordsPerChunk = 40
	const wordsPerSecond = 2.5

	words := strings.Fields(strings.Join(lines, " "))
	var chunks []Snippet
	for i := 0; i < len(words); i += wordsPerChunk {
		j := i + wordsPerChunk
		if j > len(words) {
			j = len(words)
		}
		chunks = append(chunks, Snippet{
			Text:  strings.Join(words[i:j], " "),
			Start: float64(i) / wordsPerSecond,
			End:   float64(j) / wordsPerSecond,
		})
	}
	return chunks
}

// Search returns the chunk with the highest query-term overlap, or false when
// nothing matches at all.
func (idx *Index) Search(query string) (Snippet, bool) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 || len(idx.Chunks) == 0 {
		return Snippet{}, false
	}

	best := -1
	bestScore := 0
	for i, chunk := range idx.Chunks {
		text := strings.ToLower(chunk.Text)
		score := 0
		for _, term := range terms {
			if strings.Contains(text, term) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return Snippet{}, false
	}
	return idx.Chunks[best], true
}

// standInSnippet mirrors the demo behavior when no indexed content can answer
// the query: point the conversation at an arbitrary short interval.
func standInSnippet() Snippet {
	start := rand.Float64() * 10
	return Snippet{
		Text:  "(no indexed content matched; suggesting an interval)",
		Start: start,
		End:   start + rand.Float64()*20,
	}
}
