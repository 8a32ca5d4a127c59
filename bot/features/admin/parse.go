package admin

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/botmakerspc/Stars-magnat-bota/models"

	"github.com/shopspring/decimal"
)

// StartTimeLayout is the format operators type tournament start times in
const StartTimeLayout = "02.01.2006 15:04"

// ParseStartTime reads a DD.MM.YYYY HH:MM wall-clock time in loc
func ParseStartTime(input string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(StartTimeLayout, strings.TrimSpace(input), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("start time must look like 25.12.2024 18:00: %w", err)
	}
	return t, nil
}

// splitPairs splits "a:b, c:d" into key/value pairs, cutting each pair at its first colon
func splitPairs(input string) ([][2]string, error) {
	var pairs [][2]string
	for _, item := range strings.FieldsFunc(input, func(r rune) bool { return r == ',' || r == ';' || r == '\n' }) {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key, value, ok := strings.Cut(item, ":")
		if !ok {
			key, value, ok = strings.Cut(item, "=")
		}
		if !ok {
			return nil, fmt.Errorf("expected key:value, got %q", item)
		}
		pairs = append(pairs, [2]string{strings.TrimSpace(key), strings.TrimSpace(value)})
	}
	return pairs, nil
}

// ParsePrizeSchedule reads "1:10, 2:5" into a rank to reward map
func ParsePrizeSchedule(input string) (models.PrizeSchedule, error) {
	pairs, err := splitPairs(input)
	if err != nil {
		return nil, err
	}

	schedule := models.PrizeSchedule{}
	for _, pair := range pairs {
		rank, err := strconv.Atoi(pair[0])
		if err != nil || rank < 1 {
			return nil, fmt.Errorf("invalid prize rank %q", pair[0])
		}
		if _, dup := schedule[rank]; dup {
			return nil, fmt.Errorf("prize rank %d listed twice", rank)
		}
		amount, err := decimal.NewFromString(pair[1])
		if err != nil {
			return nil, fmt.Errorf("invalid prize amount %q for rank %d", pair[1], rank)
		}
		schedule[rank] = amount
	}

	if len(schedule) == 0 {
		return nil, fmt.Errorf("at least one prize is required")
	}
	return schedule, nil
}

// ParseTrophyAssets reads "1:gold.png, default:medal.png" into trophy asset references
func ParseTrophyAssets(input string) (models.TrophyAssets, error) {
	assets := models.TrophyAssets{}
	if strings.TrimSpace(input) == "" {
		return assets, nil
	}

	pairs, err := splitPairs(input)
	if err != nil {
		return nil, err
	}
	for _, pair := range pairs {
		key := strings.ToLower(pair[0])
		if key != models.DefaultTrophyAssetKey {
			rank, err := strconv.Atoi(key)
			if err != nil || rank < 1 {
				return nil, fmt.Errorf("trophy key must be a rank or %q, got %q", models.DefaultTrophyAssetKey, pair[0])
			}
			key = strconv.Itoa(rank)
		}
		if pair[1] == "" {
			return nil, fmt.Errorf("empty trophy asset for %q", pair[0])
		}
		if _, dup := assets[key]; dup {
			return nil, fmt.Errorf("trophy for %q listed twice", key)
		}
		assets[key] = pair[1]
	}
	return assets, nil
}
