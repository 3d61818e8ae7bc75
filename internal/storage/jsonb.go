package storage

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"tradercore/internal/models"
)

// conditionSet is the jsonb column backing patternRow.Conditions, grounded
// on internal/models/memory_snapshot.go's JSONB Value/Scan pair
// generalized from map[string]interface{} to the typed
// map[PredicateKey]ConditionValue this module stores.
type conditionSet map[models.PredicateKey]models.ConditionValue

func (c conditionSet) Value() (driver.Value, error) {
	if c == nil {
		return nil, nil
	}
	return json.Marshal(map[models.PredicateKey]models.ConditionValue(c))
}

func (c *conditionSet) Scan(value any) error {
	if value == nil {
		*c = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("storage: conditionSet.Scan: type assertion to []byte failed")
	}
	var out map[models.PredicateKey]models.ConditionValue
	if err := json.Unmarshal(bytes, &out); err != nil {
		return err
	}
	*c = out
	return nil
}

// indicatorSnapshotJSON is the jsonb column backing tradeRow.Indicators.
type indicatorSnapshotJSON models.IndicatorSnapshot

func (s indicatorSnapshotJSON) Value() (driver.Value, error) {
	return json.Marshal(models.IndicatorSnapshot(s))
}

func (s *indicatorSnapshotJSON) Scan(value any) error {
	if value == nil {
		*s = indicatorSnapshotJSON{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("storage: indicatorSnapshotJSON.Scan: type assertion to []byte failed")
	}
	var out models.IndicatorSnapshot
	if err := json.Unmarshal(bytes, &out); err != nil {
		return err
	}
	*s = indicatorSnapshotJSON(out)
	return nil
}
