package imlab

import "math/rand/v2"

// RandomImage returns a width × height image of uniformly random samples in
// [0, 255). The same seed always produces the same image.
func RandomImage(width, height, channels int, seed uint64) Image {
	img := NewImage(width, height, channels)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.IntN(MaxSample))
	}
	return img
}
