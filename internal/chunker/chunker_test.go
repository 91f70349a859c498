package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yates-Labs/beacon/internal/document"
)

const lowerSentence = "the quick brown fox jumps over the lazy dog. "

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "defaults", cfg: DefaultConfig()},
		{name: "zero min and overlap", cfg: Config{MaxChunkSize: 10}},
		{name: "max equals min", cfg: Config{MaxChunkSize: 100, MinChunkSize: 100}, wantErr: true},
		{name: "max below min", cfg: Config{MaxChunkSize: 50, MinChunkSize: 100}, wantErr: true},
		{name: "overlap equals max", cfg: Config{MaxChunkSize: 100, OverlapSize: 100}, wantErr: true},
		{name: "negative min", cfg: Config{MaxChunkSize: 100, MinChunkSize: -1}, wantErr: true},
		{name: "negative overlap", cfg: Config{MaxChunkSize: 100, OverlapSize: -5}, wantErr: true},
		{name: "negative look-ahead", cfg: Config{MaxChunkSize: 100, LookAhead: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.cfg)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.NotNil(t, c)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			var cfgErr *ConfigurationError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestChunk_EmptyInput(t *testing.T) {
	c, err := New(DefaultConfig())
	require.NoError(t, err)

	assert.Empty(t, c.Chunk("", document.Metadata{}))
	assert.Empty(t, c.Chunk("   \n\t  ", document.Metadata{}))
}

func TestChunk_ShortDocumentIsOneChunk(t *testing.T) {
	c, err := New(DefaultConfig())
	require.NoError(t, err)

	meta := document.Metadata{Category: "assistive-tech", Filename: "intro.txt", Source: "data/assistive-tech/intro.txt"}
	chunks := c.Chunk("Screen readers convert text to speech. They help blind students.", meta)

	require.Len(t, chunks, 1)
	assert.Equal(t, "Screen readers convert text to speech. They help blind students.", chunks[0].Content)
	assert.Equal(t, 0, chunks[0].Metadata.ChunkIndex)
	assert.Equal(t, 1, chunks[0].Metadata.TotalChunks)
	assert.Equal(t, "assistive-tech", chunks[0].Metadata.Category)
	assert.Equal(t, len(chunks[0].Content), chunks[0].Size)
}

func TestChunk_NormalizesText(t *testing.T) {
	c, err := New(DefaultConfig())
	require.NoError(t, err)

	chunks := c.Chunk("Costs   €40\n\nper  term — roughly.", document.Metadata{})
	require.Len(t, chunks, 1)
	assert.Equal(t, "Costs 40 per term roughly.", chunks[0].Content)
	assert.Equal(t, 33, chunks[0].Metadata.OriginalSize)
}

func TestChunk_Deterministic(t *testing.T) {
	c, err := New(Config{MaxChunkSize: 120, MinChunkSize: 20, OverlapSize: 15, LookAhead: 50})
	require.NoError(t, err)

	text := strings.Repeat(lowerSentence, 30)
	assert.Equal(t, c.Chunk(text, document.Metadata{}), c.Chunk(text, document.Metadata{}))
}

func TestChunk_IndicesContiguous(t *testing.T) {
	c, err := New(Config{MaxChunkSize: 100, MinChunkSize: 10, OverlapSize: 20, LookAhead: 50})
	require.NoError(t, err)

	chunks := c.Chunk(strings.Repeat(lowerSentence, 40), document.Metadata{Source: "doc"})
	require.Greater(t, len(chunks), 1)

	for i, ch := range chunks {
		assert.Equal(t, i, ch.Metadata.ChunkIndex)
		assert.Equal(t, len(chunks), ch.Metadata.TotalChunks)
		assert.Equal(t, "doc", ch.Metadata.Source)
	}
}

func TestChunk_SizeBound(t *testing.T) {
	configs := []Config{
		{MaxChunkSize: 100, MinChunkSize: 10, OverlapSize: 20, LookAhead: 50},
		{MaxChunkSize: 10, MinChunkSize: 0, OverlapSize: 9, LookAhead: 50},
		{MaxChunkSize: 60, MinChunkSize: 59, OverlapSize: 0, LookAhead: 0},
		DefaultConfig(),
	}
	texts := []string{
		strings.Repeat(lowerSentence, 50),
		strings.Repeat("a", 1200),
		strings.Repeat("word ", 400),
		strings.Repeat("Short one. Another sentence follows here! ", 40),
	}

	for _, cfg := range configs {
		c, err := New(cfg)
		require.NoError(t, err)
		for _, text := range texts {
			chunks := c.Chunk(text, document.Metadata{})
			require.NotEmpty(t, chunks)
			for i, ch := range chunks {
				if i == len(chunks)-1 {
					continue
				}
				assert.LessOrEqual(t, ch.Size, cfg.MaxChunkSize+cfg.LookAhead,
					"chunk %d of %d exceeds bound for %+v", i, len(chunks), cfg)
			}
		}
	}
}

func TestChunk_OverlapReconstructsSection(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		text string
	}{
		{
			name: "sentence cuts",
			cfg:  Config{MaxChunkSize: 100, MinChunkSize: 10, OverlapSize: 20, LookAhead: 50},
			text: strings.Repeat(lowerSentence, 40),
		},
		{
			name: "word cuts",
			cfg:  Config{MaxChunkSize: 80, MinChunkSize: 10, OverlapSize: 10, LookAhead: 50},
			text: strings.Repeat("accessible learning materials ", 60),
		},
		{
			name: "hard cuts",
			cfg:  Config{MaxChunkSize: 100, MinChunkSize: 10, OverlapSize: 25, LookAhead: 50},
			text: strings.Repeat("x", 1000),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.cfg)
			require.NoError(t, err)

			chunks := c.Chunk(tt.text, document.Metadata{})
			require.Greater(t, len(chunks), 1)

			var b strings.Builder
			for i, ch := range chunks {
				if i == 0 {
					b.WriteString(ch.Content)
					continue
				}
				prev := []rune(chunks[i-1].Content)
				cur := []rune(ch.Content)
				require.Equal(t, string(prev[len(prev)-tt.cfg.OverlapSize:]), string(cur[:tt.cfg.OverlapSize]))
				b.WriteString(string(cur[tt.cfg.OverlapSize:]))
			}
			assert.Equal(t, normalize(tt.text), b.String())
		})
	}
}

func TestChunk_PrefersSentenceBoundary(t *testing.T) {
	c, err := New(Config{MaxChunkSize: 100, MinChunkSize: 10, OverlapSize: 20, LookAhead: 50})
	require.NoError(t, err)

	chunks := c.Chunk(strings.Repeat(lowerSentence, 40), document.Metadata{})
	for _, ch := range chunks[:len(chunks)-1] {
		assert.True(t, strings.HasSuffix(ch.Content, ". "), "chunk %q should end at a sentence", ch.Content)
	}
}

func TestChunk_MergesSmallSections(t *testing.T) {
	c, err := New(DefaultConfig())
	require.NoError(t, err)

	chunks := c.Chunk("First point. Second point.\n\nThird point here.", document.Metadata{})
	require.Len(t, chunks, 1)
	assert.Equal(t, "First point. Second point. Third point here.", chunks[0].Content)
}

func TestChunk_SectionsSplitAcrossChunks(t *testing.T) {
	c, err := New(Config{MaxChunkSize: 30, MinChunkSize: 5, OverlapSize: 5, LookAhead: 10})
	require.NoError(t, err)

	chunks := c.Chunk("Alpha beta gamma delta. Epsilon zeta eta theta.", document.Metadata{})
	require.Len(t, chunks, 2)
	assert.Equal(t, "Alpha beta gamma delta.", chunks[0].Content)
	assert.Equal(t, "Epsilon zeta eta theta.", chunks[1].Content)
}

func TestSplitSections(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "sentences", text: "One here. Two there! Three?", want: []string{"One here.", "Two there!", "Three?"}},
		{name: "lowercase continuation", text: "e.g. this stays together", want: []string{"e.g. this stays together"}},
		{name: "blank lines", text: "para one\n\npara two", want: []string{"para one", "para two"}},
		{name: "newline capital", text: "heading\nBody text", want: []string{"heading", "Body text"}},
		{name: "unicode capital", text: "fin. École suivante", want: []string{"fin.", "École suivante"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitSections(tt.text))
		})
	}
}

func TestStats(t *testing.T) {
	c, err := New(Config{MaxChunkSize: 100, MinChunkSize: 5, OverlapSize: 0})
	require.NoError(t, err)

	assert.Equal(t, Stats{}, c.Stats(nil))

	chunks := []document.Chunk{
		document.NewChunk("abcd", document.Metadata{}),
		document.NewChunk("abcdefgh", document.Metadata{}),
		document.NewChunk("abcdef", document.Metadata{}),
	}
	s := c.Stats(chunks)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 4, s.MinSize)
	assert.Equal(t, 8, s.MaxSize)
	assert.InDelta(t, 6.0, s.AverageSize, 0.0001)
	assert.Equal(t, 1, s.BelowMin)
}
