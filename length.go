/*
Copyright © 2018 the rivus authors.
This file is part of rivus.

rivus is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

rivus is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with rivus.  If not, see <http://www.gnu.org/licenses/>.
*/

package rivus

import (
	"math"

	"github.com/ctessum/geom"
)

// WGS84 ellipsoid parameters.
const (
	wgs84A = 6378137.0         // semi-major axis [m]
	wgs84F = 1 / 298.257223563 // flattening
	wgs84B = (1 - wgs84F) * wgs84A

	// earthRadius is the mean radius of the WGS84 ellipsoid [m].
	earthRadius = 6371008.8
)

// LineLength returns the length of l in metres. If geographic is true,
// the coordinates of l are longitude (X) and latitude (Y) in degrees and
// the length is the sum of the geodesic distances between consecutive
// points on the WGS84 ellipsoid. Otherwise the coordinates are assumed
// to be in a projection with units of metres.
func LineLength(l geom.LineString, geographic bool) float64 {
	if !geographic {
		return l.Length()
	}
	var length float64
	for i := 1; i < len(l); i++ {
		length += geodesic(l[i-1], l[i])
	}
	return length
}

// MultiLineLength returns the summed LineLength of each line in ml.
func MultiLineLength(ml geom.MultiLineString, geographic bool) float64 {
	var length float64
	for _, l := range ml {
		length += LineLength(l, geographic)
	}
	return length
}

// geodesic returns the distance between a and b using Vincenty's inverse
// formula. For nearly antipodal points, where the iteration does not
// converge, it falls back to the great-circle distance.
func geodesic(a, b geom.Point) float64 {
	const rad = math.Pi / 180
	L := (b.X - a.X) * rad
	u1 := math.Atan((1 - wgs84F) * math.Tan(a.Y*rad))
	u2 := math.Atan((1 - wgs84F) * math.Tan(b.Y*rad))
	sinU1, cosU1 := math.Sincos(u1)
	sinU2, cosU2 := math.Sincos(u2)

	lambda := L
	for iter := 0; iter < 200; iter++ {
		sinL, cosL := math.Sincos(lambda)
		sinSigma := math.Hypot(cosU2*sinL, cosU1*sinU2-sinU1*cosU2*cosL)
		if sinSigma == 0 {
			return 0 // coincident points
		}
		cosSigma := sinU1*sinU2 + cosU1*cosU2*cosL
		sigma := math.Atan2(sinSigma, cosSigma)
		sinAlpha := cosU1 * cosU2 * sinL / sinSigma
		cos2Alpha := 1 - sinAlpha*sinAlpha
		var cos2SigmaM float64
		if cos2Alpha != 0 {
			cos2SigmaM = cosSigma - 2*sinU1*sinU2/cos2Alpha
		}
		c := wgs84F / 16 * cos2Alpha * (4 + wgs84F*(4-3*cos2Alpha))
		prev := lambda
		lambda = L + (1-c)*wgs84F*sinAlpha*
			(sigma+c*sinSigma*(cos2SigmaM+c*cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)))
		if math.Abs(lambda-prev) < 1e-12 {
			u := cos2Alpha * (wgs84A*wgs84A - wgs84B*wgs84B) / (wgs84B * wgs84B)
			A := 1 + u/16384*(4096+u*(-768+u*(320-175*u)))
			B := u / 1024 * (256 + u*(-128+u*(74-47*u)))
			deltaSigma := B * sinSigma * (cos2SigmaM + B/4*(cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)-
				B/6*cos2SigmaM*(-3+4*sinSigma*sinSigma)*(-3+4*cos2SigmaM*cos2SigmaM)))
			return wgs84B * A * (sigma - deltaSigma)
		}
	}
	return haversine(a, b)
}

func haversine(a, b geom.Point) float64 {
	const rad = math.Pi / 180
	lat1, lat2 := a.Y*rad, b.Y*rad
	dlat := lat2 - lat1
	dlon := (b.X - a.X) * rad
	h := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	return 2 * earthRadius * math.Asin(math.Min(1, math.Sqrt(h)))
}
