// Package simulator drives a device registry: it varies inlet flows,
// applies operator commands and feeds readings to a renderer.
//
// The pieces are independent and can be used on their own:
//
//   - FlowGenerator sets a random inlet flow on every active meter.
//   - Commander applies Increase, Decrease, Next, Prev and Stop commands
//     to the selected device.
//   - RenderLoop hands each device's Reading to a Renderer.
//
// Simulator runs the generator and the render loop together, and stops
// once any meter reaches a configured volume.
package simulator
