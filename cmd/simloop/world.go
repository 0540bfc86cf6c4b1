package main

import "math/rand/v2"

// worldSize is the side of the square the particles bounce around in.
const worldSize = 1000.0

type particle struct {
	x, y   float64
	vx, vy float64 // units per tick at delta 1.0
}

// newParticles scatters n particles with random positions and velocities.
func newParticles(n int, seed uint64) []*particle {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]*particle, n)
	for i := range out {
		out[i] = &particle{
			x:  rng.Float64() * worldSize,
			y:  rng.Float64() * worldSize,
			vx: rng.Float64()*4 - 2,
			vy: rng.Float64()*4 - 2,
		}
	}
	return out
}

// stepParticle advances p by delta ticks, reflecting off the walls.
func stepParticle(p *particle, delta float64) {
	p.x, p.vx = reflect(p.x+p.vx*delta, p.vx)
	p.y, p.vy = reflect(p.y+p.vy*delta, p.vy)
}

func reflect(pos, vel float64) (float64, float64) {
	switch {
	case pos < 0:
		pos, vel = -pos, -vel
	case pos > worldSize:
		pos, vel = 2*worldSize-pos, -vel
	}
	// a long stall can carry a particle past the opposite wall too
	return min(max(pos, 0), worldSize), vel
}
