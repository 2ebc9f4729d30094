// Package camera implements the Camera Registry component.
//
// The Camera Registry:
//   - Loads the camera table with get_camera_list on startup
//   - Applies camera_status_update notifications as they arrive
//   - Reconciles against get_camera_list periodically to catch updates
//     missed while the socket was down
//   - Publishes created, status_change and removed events on a channel
package camera
