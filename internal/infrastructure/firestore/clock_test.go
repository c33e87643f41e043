package firestore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClockMinutes(t *testing.T) {
	assert.Equal(t, 9*60, clockMinutes("09:00 AM"))
	assert.Equal(t, 14*60+30, clockMinutes("02:30 PM"))
	assert.Equal(t, 14*60+30, clockMinutes("2:30 PM"))
	assert.Equal(t, 8*60+15, clockMinutes("08:15"))
	assert.Equal(t, 24*60, clockMinutes("soon"))

	// lexical order would put 10:00 AM after 02:30 PM
	assert.Less(t, clockMinutes("10:00 AM"), clockMinutes("02:30 PM"))
}
