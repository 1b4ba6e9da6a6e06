package main

import (
	"math"
	"time"
)

const (
	WorldWidth  = 3000.0
	WorldHeight = 3000.0

	InitialRadius = 25.0
	MinFoodRadius = 5.0
	MaxFoodRadius = 12.0
	FoodCount     = 150
	SpawnMargin   = 200.0

	BaseSpeed      = 20.0
	TurnSmoothing  = 0.25 // velocity low-pass factor per tick
	WallDamping    = -0.5
	GrowthFactor   = 0.8 // food growth only; predation is undamped
	PredationRatio = 1.1
	EngulfFactor   = 0.2

	MinSplitRadius    = 35.0
	SplitForce        = 18.0
	MaxBlobs          = 8
	MergeCooldown     = 10 * time.Second
	MergeAttraction   = 0.01
	MergeOverlapRatio = 0.1
	SelfCollisionPush = 0.5
	MaxSelfOverlap    = 4.0

	SporeRadius    = 10.0
	SporeSpeed     = 18.0
	SporeGap       = 5.0
	MinEjectRadius = 35.0
	EjectCooldown  = 80 * time.Millisecond
)

var (
	FoodColors   = []string{"#f87171", "#fbbf24", "#a3e635", "#34d399", "#818cf8", "#e879f9", "#ec4899", "#6366f1"}
	PlayerColors = []string{"#22d3ee", "#f472b6", "#a78bfa", "#4ade80"}
)

// Blob is one circular mass unit. Radius doubles as the mass proxy.
type Blob struct {
	ID     string
	X, Y   float64
	Radius float64
	VX, VY float64
	Color  string
	Name   string
	// MergeEligibleAt gates rejoining a same-owner blob; zero means no cooldown.
	MergeEligibleAt time.Time

	consumed bool
}

// SpeedFor returns the top speed of a blob with radius r at full throttle.
func SpeedFor(r float64) float64 {
	return BaseSpeed * math.Pow(InitialRadius/math.Max(InitialRadius, r), 0.5)
}

// SplitRadius is the radius of each half after a split: r/√2 keeps total area.
func SplitRadius(r float64) float64 {
	return r / math.Sqrt2
}

// EjectRadius is what is left of r after shedding one spore.
func EjectRadius(r float64) float64 {
	return math.Sqrt(r*r - SporeRadius*SporeRadius)
}

// CombineRadius adds the areas of two circles.
func CombineRadius(a, b float64) float64 {
	return math.Sqrt(a*a + b*b)
}

// GrowRadius applies food growth, damped by GrowthFactor.
func GrowRadius(r, food float64) float64 {
	return math.Sqrt(r*r + food*food*GrowthFactor)
}

func (b *Blob) heading() float64 {
	return math.Atan2(b.VY, b.VX)
}

// canMerge reports whether the blob's merge cooldown has elapsed at now.
func (b *Blob) canMerge(now time.Time) bool {
	return b.MergeEligibleAt.IsZero() || !now.Before(b.MergeEligibleAt)
}

// steer eases velocity toward speed along angle, integrates position and
// keeps the blob inside the world.
func (b *Blob) steer(angle, speed, width, height float64) {
	tvx := math.Cos(angle) * speed
	tvy := math.Sin(angle) * speed
	b.VX += (tvx - b.VX) * TurnSmoothing
	b.VY += (tvy - b.VY) * TurnSmoothing
	b.X += b.VX
	b.Y += b.VY
	b.clamp(width, height)
}

// clamp pins the blob to [r, dim-r] on both axes and reflects the velocity
// component that hit the wall at half magnitude.
func (b *Blob) clamp(width, height float64) {
	if b.X < b.Radius {
		b.X = b.Radius
		b.VX *= WallDamping
	}
	if b.X > width-b.Radius {
		b.X = width - b.Radius
		b.VX *= WallDamping
	}
	if b.Y < b.Radius {
		b.Y = b.Radius
		b.VY *= WallDamping
	}
	if b.Y > height-b.Radius {
		b.Y = height - b.Radius
		b.VY *= WallDamping
	}
}

// absorb folds o into b: area-summed radius, area-weighted position and velocity.
func (b *Blob) absorb(o *Blob) {
	a1 := b.Radius * b.Radius
	a2 := o.Radius * o.Radius
	total := a1 + a2
	b.VX = (b.VX*a1 + o.VX*a2) / total
	b.VY = (b.VY*a1 + o.VY*a2) / total
	b.X = (b.X*a1 + o.X*a2) / total
	b.Y = (b.Y*a1 + o.Y*a2) / total
	b.Radius = math.Sqrt(total)
}
