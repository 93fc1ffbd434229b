package spot

import (
	"github.com/icodeforyou/spotprice-go/calc"
)

// Average is the mean over every hour of every day in the bucket.
func Average(bucket DayBucket, precision int32) (float64, error) {
	avg, ok := calc.Mean(bucket.Prices(), precision)
	if !ok {
		return 0, ErrEmptyResultSet
	}
	return avg, nil
}
