package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

func TestQuality(t *testing.T) {
	assert.Equal(t, Quality(0), Unknown)
	assert.Equal(t, Quality(4), Wrong)
}

func TestQualityString(t *testing.T) {
	assert.Equal(t, Quality(0).String(), "Unknown")
	assert.Equal(t, Quality(4).String(), "Wrong")
}

func TestParse(t *testing.T) {
	q, err := Parse("Confirmed")
	assert.Nil(t, err)
	assert.Equal(t, Confirmed, q)

	_, err = Parse("confirmed")
	assert.NotNil(t, err)
}

func TestYAML(t *testing.T) {
	b, err := yaml.Marshal(Suspect)
	assert.Nil(t, err)
	assert.Equal(t, "Suspect\n", string(b))

	var q Quality
	assert.Nil(t, yaml.Unmarshal([]byte("Guess"), &q))
	assert.Equal(t, Guess, q)

	assert.NotNil(t, yaml.Unmarshal([]byte("Definitely"), &q))
}
