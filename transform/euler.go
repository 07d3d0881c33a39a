// ABOUTME: Conversion between rotation quaternions and roll/pitch/yaw angles in degrees
// ABOUTME: Plus the rounding helpers used when deriving display values
package transform

import (
	"math"

	"github.com/harperreed/formsync/models"
)

// Euler holds rotation angles in degrees. Roll is about X, pitch about Y and
// yaw about Z, applied in Z-Y-X order.
type Euler struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// QuatToEuler decomposes q. At gimbal lock the pitch is pinned to ±90.
func QuatToEuler(q models.Quat) Euler {
	q = normalize(q)

	sinrCosp := 2 * (q.W*q.X + q.Y*q.Z)
	cosrCosp := 1 - 2*(q.X*q.X+q.Y*q.Y)
	roll := math.Atan2(sinrCosp, cosrCosp)

	sinp := 2 * (q.W*q.Y - q.Z*q.X)
	sinp = math.Max(-1, math.Min(1, sinp))
	pitch := math.Asin(sinp)

	sinyCosp := 2 * (q.W*q.Z + q.X*q.Y)
	cosyCosp := 1 - 2*(q.Y*q.Y+q.Z*q.Z)
	yaw := math.Atan2(sinyCosp, cosyCosp)

	return Euler{Roll: degrees(roll), Pitch: degrees(pitch), Yaw: degrees(yaw)}
}

// EulerToQuat composes a unit quaternion from e.
func EulerToQuat(e Euler) models.Quat {
	cr, sr := math.Cos(radians(e.Roll)/2), math.Sin(radians(e.Roll)/2)
	cp, sp := math.Cos(radians(e.Pitch)/2), math.Sin(radians(e.Pitch)/2)
	cy, sy := math.Cos(radians(e.Yaw)/2), math.Sin(radians(e.Yaw)/2)

	return models.Quat{
		W: cr*cp*cy + sr*sp*sy,
		X: sr*cp*cy - cr*sp*sy,
		Y: cr*sp*cy + sr*cp*sy,
		Z: cr*cp*sy - sr*sp*cy,
	}
}

// ClampAngle limits an angle to [-180, 180]. NaN becomes 0.
func ClampAngle(deg float64) float64 {
	switch {
	case math.IsNaN(deg):
		return 0
	case deg < -180:
		return -180
	case deg > 180:
		return 180
	}
	return deg
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func normalize(q models.Quat) models.Quat {
	n := math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if n == 0 {
		return models.IdentityQuat()
	}
	return models.Quat{X: q.X / n, Y: q.Y / n, Z: q.Z / n, W: q.W / n}
}

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
func radians(deg float64) float64 { return deg * math.Pi / 180 }
