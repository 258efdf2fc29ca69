package param

// builtins is the static platform schema: the OSC endpoints VRChat exposes
// regardless of which avatar is loaded. Input controls are write-only from
// our side, camera and system endpoints are echoed back by the application.
// Multi-argument tracking poses carry six floats per message and are not
// representable as single parameters; the transceiver ignores them.
var builtins = []Parameter{
	// Input axes.
	{Name: "Input_Horizontal", Address: "/input/Horizontal", Type: TypeFloat, Direction: DirInput, Category: "input", Min: -1, Max: 1},
	{Name: "Input_Vertical", Address: "/input/Vertical", Type: TypeFloat, Direction: DirInput, Category: "input", Min: -1, Max: 1},
	{Name: "Input_LookHorizontal", Address: "/input/LookHorizontal", Type: TypeFloat, Direction: DirInput, Category: "input", Min: -1, Max: 1},
	{Name: "Input_LookVertical", Address: "/input/LookVertical", Type: TypeFloat, Direction: DirInput, Category: "input", Min: -1, Max: 1},

	// Input buttons.
	{Name: "Input_Jump", Address: "/input/Jump", Type: TypeBool, Direction: DirInput, Category: "input", Max: 1},
	{Name: "Input_Run", Address: "/input/Run", Type: TypeBool, Direction: DirInput, Category: "input", Max: 1},
	{Name: "Input_Voice", Address: "/input/Voice", Type: TypeBool, Direction: DirInput, Category: "input", Max: 1},
	{Name: "Input_MoveForward", Address: "/input/MoveForward", Type: TypeBool, Direction: DirInput, Category: "input", Max: 1},
	{Name: "Input_MoveBackward", Address: "/input/MoveBackward", Type: TypeBool, Direction: DirInput, Category: "input", Max: 1},
	{Name: "Input_MoveLeft", Address: "/input/MoveLeft", Type: TypeBool, Direction: DirInput, Category: "input", Max: 1},
	{Name: "Input_MoveRight", Address: "/input/MoveRight", Type: TypeBool, Direction: DirInput, Category: "input", Max: 1},
	{Name: "Input_GrabLeft", Address: "/input/GrabLeft", Type: TypeBool, Direction: DirInput, Category: "input", Max: 1},
	{Name: "Input_UseLeft", Address: "/input/UseLeft", Type: TypeBool, Direction: DirInput, Category: "input", Max: 1},
	{Name: "Input_DropLeft", Address: "/input/DropLeft", Type: TypeBool, Direction: DirInput, Category: "input", Max: 1},
	{Name: "Input_GrabRight", Address: "/input/GrabRight", Type: TypeBool, Direction: DirInput, Category: "input", Max: 1},
	{Name: "Input_UseRight", Address: "/input/UseRight", Type: TypeBool, Direction: DirInput, Category: "input", Max: 1},
	{Name: "Input_DropRight", Address: "/input/DropRight", Type: TypeBool, Direction: DirInput, Category: "input", Max: 1},
	{Name: "Input_LookLeft", Address: "/input/LookLeft", Type: TypeBool, Direction: DirInput, Category: "input", Max: 1},
	{Name: "Input_LookRight", Address: "/input/LookRight", Type: TypeBool, Direction: DirInput, Category: "input", Max: 1},
	{Name: "Input_ComfortLeft", Address: "/input/ComfortLeft", Type: TypeBool, Direction: DirInput, Category: "input", Max: 1},
	{Name: "Input_ComfortRight", Address: "/input/ComfortRight", Type: TypeBool, Direction: DirInput, Category: "input", Max: 1},
	{Name: "Input_AFKToggle", Address: "/input/AFKToggle", Type: TypeBool, Direction: DirInput, Category: "input", Max: 1},

	// Chatbox.
	{Name: "Chatbox_Typing", Address: "/chatbox/typing", Type: TypeBool, Direction: DirInput, Category: "chatbox", Max: 1},

	// Camera, readable and writable.
	{Name: "Camera_Mode", Address: "/usercamera/Mode", Type: TypeInt, Direction: DirInput | DirOutput, Category: "camera", Max: 6},
	{Name: "Camera_Zoom", Address: "/usercamera/Zoom", Type: TypeFloat, Direction: DirInput | DirOutput, Category: "camera", Min: 20, Max: 150},
	{Name: "Camera_Exposure", Address: "/usercamera/Exposure", Type: TypeFloat, Direction: DirInput | DirOutput, Category: "camera", Min: -10, Max: 4},
	{Name: "Camera_FocalDistance", Address: "/usercamera/FocalDistance", Type: TypeFloat, Direction: DirInput | DirOutput, Category: "camera", Max: 10},
	{Name: "Camera_Aperture", Address: "/usercamera/Aperture", Type: TypeFloat, Direction: DirInput | DirOutput, Category: "camera", Min: 1.4, Max: 32},
	{Name: "Camera_Capture", Address: "/usercamera/Capture", Type: TypeBool, Direction: DirInput | DirOutput, Category: "camera", Max: 1},
	{Name: "Camera_CaptureDelayed", Address: "/usercamera/CaptureDelayed", Type: TypeBool, Direction: DirInput | DirOutput, Category: "camera", Max: 1},
	{Name: "Camera_Close", Address: "/usercamera/Close", Type: TypeBool, Direction: DirInput | DirOutput, Category: "camera", Max: 1},
	{Name: "Camera_ShowUIInCamera", Address: "/usercamera/ShowUIInCamera", Type: TypeBool, Direction: DirInput | DirOutput, Category: "camera", Max: 1},
	{Name: "Camera_LocalPlayer", Address: "/usercamera/LocalPlayer", Type: TypeBool, Direction: DirInput | DirOutput, Category: "camera", Max: 1},
	{Name: "Camera_RemotePlayer", Address: "/usercamera/RemotePlayer", Type: TypeBool, Direction: DirInput | DirOutput, Category: "camera", Max: 1},
	{Name: "Camera_Environment", Address: "/usercamera/Environment", Type: TypeBool, Direction: DirInput | DirOutput, Category: "camera", Max: 1},
	{Name: "Camera_GreenScreen", Address: "/usercamera/GreenScreen", Type: TypeBool, Direction: DirInput | DirOutput, Category: "camera", Max: 1},
	{Name: "Camera_Lock", Address: "/usercamera/Lock", Type: TypeBool, Direction: DirInput | DirOutput, Category: "camera", Max: 1},
	{Name: "Camera_SmoothMovement", Address: "/usercamera/SmoothMovement", Type: TypeBool, Direction: DirInput | DirOutput, Category: "camera", Max: 1},
	{Name: "Camera_LookAtMe", Address: "/usercamera/LookAtMe", Type: TypeBool, Direction: DirInput | DirOutput, Category: "camera", Max: 1},
	{Name: "Camera_Flying", Address: "/usercamera/Flying", Type: TypeBool, Direction: DirInput | DirOutput, Category: "camera", Max: 1},
	{Name: "Camera_Streaming", Address: "/usercamera/Streaming", Type: TypeBool, Direction: DirInput | DirOutput, Category: "camera", Max: 1},

	// System state reported by the application.
	{Name: "System_VRMode", Address: "/avatar/parameters/VRMode", Type: TypeInt, Direction: DirOutput, Category: "system", Max: 1},
	{Name: "System_TrackingType", Address: "/avatar/parameters/TrackingType", Type: TypeInt, Direction: DirOutput, Category: "system", Max: 6},
	{Name: "System_EyeHeightAsMeters", Address: "/avatar/parameters/EyeHeightAsMeters", Type: TypeFloat, Direction: DirOutput, Category: "system", Max: 3},
	{Name: "System_EyeHeightAsPercent", Address: "/avatar/parameters/EyeHeightAsPercent", Type: TypeFloat, Direction: DirOutput, Category: "system", Max: 1},
}

// Builtins returns a fresh copy of the platform schema with Origin set.
// The copy is the caller's to own; the table itself is never mutated.
func Builtins() []Parameter {
	out := make([]Parameter, len(builtins))
	copy(out, builtins)
	for i := range out {
		out[i].Origin = OriginBuiltin
	}
	return out
}
