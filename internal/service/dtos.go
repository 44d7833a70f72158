package service

// PerformanceTrend compares the overall average rating of the requested
// window against the immediately preceding window of equal length.
type PerformanceTrend struct {
	CurrentAverage   float64
	PreviousAverage  float64
	ChangePercentage float64
}
