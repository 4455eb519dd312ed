package firestore

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/charlie0129/timetocode-dashboard/internal/models"
)

// DecodeReport converts the typed "fields" object of a Firestore document into
// a Report. It fails on missing required fields and on values of the wrong
// type instead of guessing.
func DecodeReport(fields gjson.Result) (models.Report, error) {
	var r models.Report
	if !fields.IsObject() {
		return r, errors.New("document has no fields")
	}

	var err error
	if r.FileDurations, err = decodeDurations(fields.Get("fileDurations")); err != nil {
		return r, fmt.Errorf("fileDurations: %w", err)
	}
	if r.ActivityLog, err = decodeActivityLog(fields.Get("activityLog")); err != nil {
		return r, fmt.Errorf("activityLog: %w", err)
	}
	if r.InactivityDuration, err = integerValue(fields.Get("inactivityDuration")); err != nil {
		return r, fmt.Errorf("inactivityDuration: %w", err)
	}
	if r.Timestamp, err = timeString(fields.Get("timestamp")); err != nil {
		return r, fmt.Errorf("timestamp: %w", err)
	}
	if r.UserID, err = stringValue(fields.Get("userId")); err != nil {
		return r, fmt.Errorf("userId: %w", err)
	}
	if p := fields.Get("projeto"); p.Exists() && !isNull(p) {
		if r.Projeto, err = stringValue(p); err != nil {
			return r, fmt.Errorf("projeto: %w", err)
		}
	}
	return r, nil
}

func decodeDurations(v gjson.Result) (map[string]int64, error) {
	m := v.Get("mapValue")
	if !m.Exists() {
		return nil, errMismatch("mapValue", v)
	}
	out := make(map[string]int64)
	var err error
	m.Get("fields").ForEach(func(key, value gjson.Result) bool {
		var ms int64
		ms, err = integerValue(value)
		if err != nil {
			err = fmt.Errorf("%q: %w", key.String(), err)
			return false
		}
		out[key.String()] = ms
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func decodeActivityLog(v gjson.Result) ([]models.LogEntry, error) {
	arr := v.Get("arrayValue")
	if !arr.Exists() {
		return nil, errMismatch("arrayValue", v)
	}
	values := arr.Get("values").Array()
	out := make([]models.LogEntry, 0, len(values))
	for i, item := range values {
		fields := item.Get("mapValue.fields")
		if !item.Get("mapValue").Exists() {
			return nil, fmt.Errorf("[%d]: %w", i, errMismatch("mapValue", item))
		}
		var (
			e   models.LogEntry
			err error
		)
		if e.Time, err = timeString(fields.Get("time")); err != nil {
			return nil, fmt.Errorf("[%d].time: %w", i, err)
		}
		if e.Action, err = stringValue(fields.Get("action")); err != nil {
			return nil, fmt.Errorf("[%d].action: %w", i, err)
		}
		if e.File, err = stringValue(fields.Get("file")); err != nil {
			return nil, fmt.Errorf("[%d].file: %w", i, err)
		}
		if d := fields.Get("duration"); d.Exists() && !isNull(d) {
			if e.Duration, err = stringValue(d); err != nil {
				return nil, fmt.Errorf("[%d].duration: %w", i, err)
			}
		}
		out = append(out, e)
	}
	return out, nil
}

func stringValue(v gjson.Result) (string, error) {
	s := v.Get("stringValue")
	if !s.Exists() {
		return "", errMismatch("stringValue", v)
	}
	return s.String(), nil
}

// timeString accepts ISO strings as well as native timestamps.
func timeString(v gjson.Result) (string, error) {
	if ts := v.Get("timestampValue"); ts.Exists() {
		return ts.String(), nil
	}
	return stringValue(v)
}

// integerValue reads an integer field. Firestore encodes int64 as a decimal
// string; whole doubles are accepted because JS clients write numbers as doubles.
func integerValue(v gjson.Result) (int64, error) {
	if iv := v.Get("integerValue"); iv.Exists() {
		n, err := strconv.ParseInt(iv.String(), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("bad integerValue %q", iv.String())
		}
		return n, nil
	}
	if dv := v.Get("doubleValue"); dv.Exists() {
		f := dv.Float()
		if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
			return 0, fmt.Errorf("non-integral doubleValue %v", f)
		}
		return int64(f), nil
	}
	return 0, errMismatch("integerValue", v)
}

func isNull(v gjson.Result) bool {
	return v.Get("nullValue").Exists()
}

func errMismatch(want string, got gjson.Result) error {
	if !got.Exists() {
		return errors.New("missing")
	}
	return fmt.Errorf("expected %s, got %s", want, got.Raw)
}
