// internal/workers/tools/visualize-data/models.go
package visualizedata

// SuccessMessage is returned to the model in place of the image payload.
const SuccessMessage = "Plot generated successfully."
