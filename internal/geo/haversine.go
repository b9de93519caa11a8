// Package geo содержит единственную формулу расстояния, общую для Go-кода и SQL-запросов.
package geo

import (
	"fmt"
	"math"
)

// EarthRadiusKm - радиус Земли для haversine
const EarthRadiusKm = 6371.0

type Point struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

func ValidLatitude(lat float64) bool {
	return lat >= -90 && lat <= 90
}

func ValidLongitude(lon float64) bool {
	return lon >= -180 && lon <= 180
}

func (p Point) Valid() bool {
	return ValidLatitude(p.Lat) && ValidLongitude(p.Lon)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Distance - расстояние по большому кругу в километрах (haversine, atan2-форма).
// Координаты вне диапазона - ошибка вызывающей стороны, здесь не проверяются.
func Distance(a, b Point) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLon := toRadians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Lat))*math.Cos(toRadians(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	// погрешность float может дать h чуть больше 1 для антиподов
	h = math.Min(1, h)

	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// WithinRadius - граница включительная
func WithinRadius(distanceKm, radiusKm float64) bool {
	return distanceKm <= radiusKm
}

// Round2 округляет до двух знаков (так хранится distance у откликов на SOS)
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// SQLDistance - та же формула в виде SQL-выражения над колонками latitude/longitude.
// Возвращает выражение и аргументы для gorm (Select / Order / Where).
func SQLDistance(latColumn, lonColumn string, center Point) (string, []interface{}) {
	expr := fmt.Sprintf(
		"(%[1]g * 2 * atan2(sqrt(LEAST(1, power(sin(radians(%[2]s - ?) / 2), 2) + cos(radians(?)) * cos(radians(%[2]s)) * power(sin(radians(%[3]s - ?) / 2), 2))), "+
			"sqrt(1 - LEAST(1, power(sin(radians(%[2]s - ?) / 2), 2) + cos(radians(?)) * cos(radians(%[2]s)) * power(sin(radians(%[3]s - ?) / 2), 2)))))",
		EarthRadiusKm, latColumn, lonColumn,
	)
	args := []interface{}{center.Lat, center.Lat, center.Lon, center.Lat, center.Lat, center.Lon}
	return expr, args
}
