// Package ucam drives a uCAM-III serial JPEG camera.
//
// A capture is three phases, each requiring the previous one:
//
//	cam := ucam.NewCamera(port)
//	err := cam.Sync(ctx)         // handshake, retried until the camera answers
//	err = cam.TakePicture(ctx)   // initial, package size, snapshot, get picture
//	for {
//	    n, err := cam.FetchChunk(ctx)
//	    if err != nil || n == 0 {
//	        break
//	    }
//	    out.Write(cam.Chunk())   // only valid until the next FetchChunk
//	}
//
// Snap does all of it into an io.Writer.
//
// A Camera is not safe for concurrent use and runs one capture at a time.
// A capture consumes the synchronization: TakePicture again requires Sync
// first.
package ucam
