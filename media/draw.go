package media

import "github.com/gogpu/tiles/shader"

// Draw records the video windows and then the content window for a media
// layer occupying bounds. Nothing is drawn for empty bounds. It returns
// the number of quads recorded.
func (m *Manager) Draw(contentMatrix, videoMatrix shader.Matrix4, bounds shader.Rect) int {
	if bounds.IsEmpty() {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.drawVideoLocked(videoMatrix, bounds)
	if m.drawContentLocked(contentMatrix, bounds) {
		n++
	}
	return n
}

// DrawContent records the plugin content window over bounds. It reports
// false when there is no content window or no frame has arrived yet.
func (m *Manager) DrawContent(matrix shader.Matrix4, bounds shader.Rect) bool {
	if bounds.IsEmpty() {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.drawContentLocked(matrix, bounds)
}

// DrawVideo records every video window that has dimensions and a frame,
// offset by the parent bounds. It returns the number of quads recorded.
func (m *Manager) DrawVideo(matrix shader.Matrix4, parentBounds shader.Rect) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.drawVideoLocked(matrix, parentBounds)
}

func (m *Manager) drawContentLocked(matrix shader.Matrix4, bounds shader.Rect) bool {
	c := m.content
	if c == nil || !c.listener.IsFrameAvailable() {
		return false
	}
	c.consumer.UpdateTexImage()
	buf := c.consumer.CurrentBuffer()
	if buf == nil {
		return false
	}
	// Formats without alpha are drawn without blending.
	m.program.DrawLayerQuad(matrix, bounds, c.textureID, 1, buf.Format.HasAlpha(), shader.ExternalOES)
	return true
}

func (m *Manager) drawVideoLocked(matrix shader.Matrix4, parent shader.Rect) int {
	n := 0
	for _, h := range m.videos {
		v := m.slots[h]
		if v.dims.IsEmpty() || !v.listener.IsFrameAvailable() {
			continue
		}
		v.consumer.UpdateTexImage()
		surfaceMatrix := shader.Matrix4(v.consumer.TransformMatrix())

		dims := v.dims
		dims.X += parent.X
		dims.Y += parent.Y
		if !contains(parent, dims) {
			m.log().Debug("media: video exceeds its parent bounds", "handle", h)
		}
		m.program.DrawVideoLayerQuad(matrix, surfaceMatrix, dims, v.textureID)
		n++
	}
	return n
}

func contains(outer, inner shader.Rect) bool {
	return inner.X >= outer.X && inner.Y >= outer.Y &&
		inner.X+inner.W <= outer.X+outer.W &&
		inner.Y+inner.H <= outer.Y+outer.H
}
