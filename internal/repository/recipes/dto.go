package recipes

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/pantrychef-io/pantrychef/internal/domain/recipe"
)

// buildHashFields converts a recipe into a flat map[string]string for HSET.
// Unknown times are stored as empty strings so they stay out of the
// NUMERIC index and never match a range query.
func buildHashFields(r *recipe.Recipe) map[string]string {
	m := map[string]string{
		"name":                 r.Name,
		"main_ingredients":     r.MainIngredients,
		"all_ingredients":      r.AllIngredients,
		"instructions":         r.Instructions,
		"cuisine_type":         r.CuisineType,
		"meal_type":            r.MealType,
		"difficulty":           r.Difficulty,
		"dietary_restrictions": r.DietaryRestrictions,
	}
	if r.PrepMinutes != nil {
		m["prep_minutes"] = strconv.Itoa(*r.PrepMinutes)
	}
	if r.CookMinutes != nil {
		m["cook_minutes"] = strconv.Itoa(*r.CookMinutes)
	}
	if len(r.Vector) > 0 {
		m["vector"] = vectorToBytes(r.Vector)
	}
	return m
}

// parseHashFields converts a flat hash map back into a recipe.
func parseHashFields(id string, m map[string]string) recipe.Recipe {
	return recipe.Recipe{
		ID:                  id,
		Name:                m["name"],
		MainIngredients:     m["main_ingredients"],
		AllIngredients:      m["all_ingredients"],
		Instructions:        m["instructions"],
		CuisineType:         m["cuisine_type"],
		MealType:            m["meal_type"],
		Difficulty:          m["difficulty"],
		DietaryRestrictions: m["dietary_restrictions"],
		PrepMinutes:         parseMinutes(m["prep_minutes"]),
		CookMinutes:         parseMinutes(m["cook_minutes"]),
		Vector:              bytesToVector(m["vector"]),
	}
}

// parseMinutes returns nil for missing or unparsable values.
func parseMinutes(s string) *int {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// bytesToVector deserializes a binary string back to []float32.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b) == 0 || len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
