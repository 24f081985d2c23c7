// Package shader records textured quad draws for the compositor.
//
// Two programs exist: the layer quad, which samples a tile or content
// texture with an opacity and an optional inverted-colors pass, and the
// video quad, which samples an external frame through the producer's
// texture transform. Draws are recorded into a batch that the compositor
// drains with Flush.
//
// The WGSL sources are embedded and can be compiled to SPIR-V with
// Compile or turned into hal shader modules with AttachDevice.
package shader
