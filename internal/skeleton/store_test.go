package skeleton

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mu-skeleton/internal/mathutil"
)

const eps = 1e-9

// chain builds bones named after names, each parented to the previous one.
func chain(t *testing.T, s *Skeleton, names ...string) {
	t.Helper()
	for i, name := range names {
		require.NoError(t, s.AddBone(name))
		if i > 0 {
			require.NoError(t, s.SetBoneParent(i, i-1))
		}
	}
}

func TestAddBone_Validation(t *testing.T) {
	s := New()

	assert.ErrorIs(t, s.AddBone(""), ErrInvalidName)
	assert.ErrorIs(t, s.AddBone("a/b"), ErrInvalidName)
	assert.ErrorIs(t, s.AddBone("a:b"), ErrInvalidName)
	require.NoError(t, s.AddBone("root"))
	assert.ErrorIs(t, s.AddBone("root"), ErrDuplicateName)

	assert.Equal(t, 1, s.BoneCount())
}

func TestAddBone_BumpsVersionAndDirties(t *testing.T) {
	s := New()
	v := s.Version()

	require.NoError(t, s.AddBone("root"))

	assert.Equal(t, v+1, s.Version())
	assert.True(t, s.IsDirty())

	rest, err := s.BoneRest(0)
	require.NoError(t, err)
	assert.Equal(t, mathutil.Identity(), rest)
	enabled, err := s.IsBoneEnabled(0)
	require.NoError(t, err)
	assert.True(t, enabled)
	parent, err := s.BoneParent(0)
	require.NoError(t, err)
	assert.Equal(t, NotFound, parent)
}

func TestAddBone_RejectedLeavesVersion(t *testing.T) {
	s := New()
	v := s.Version()
	_ = s.AddBone("")
	assert.Equal(t, v, s.Version())
	assert.False(t, s.IsDirty())
}

func TestFindBone(t *testing.T) {
	s := New()
	chain(t, s, "hips", "spine", "Spine")

	assert.Equal(t, 1, s.FindBone("spine"))
	assert.Equal(t, 2, s.FindBone("Spine"))
	assert.Equal(t, NotFound, s.FindBone("SPINE"))
	assert.Equal(t, NotFound, s.FindBone(""))
}

func TestSetBoneParent_Bounds(t *testing.T) {
	s := New()
	chain(t, s, "a", "b")

	assert.ErrorIs(t, s.SetBoneParent(2, 0), ErrIndexOutOfRange)
	assert.ErrorIs(t, s.SetBoneParent(-1, 0), ErrIndexOutOfRange)
	assert.ErrorIs(t, s.SetBoneParent(1, 5), ErrInvalidParent)
	assert.ErrorIs(t, s.SetBoneParent(1, -2), ErrInvalidParent)

	// Self-parenting and cycles are accepted here.
	assert.NoError(t, s.SetBoneParent(0, 0))
	assert.NoError(t, s.SetBoneParent(0, 1))
	assert.NoError(t, s.SetBoneParent(1, NotFound))
}

func TestBoneChildrenAndRoots(t *testing.T) {
	s := New()
	chain(t, s, "a", "b")
	require.NoError(t, s.AddBone("c"))
	require.NoError(t, s.SetBoneParent(2, 0))

	kids, err := s.BoneChildren(0)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, kids)
	assert.Equal(t, []int{0}, s.ParentlessBones())
}

func TestSetters_OutOfRange(t *testing.T) {
	s := New()
	id := mathutil.Identity()

	assert.ErrorIs(t, s.SetBoneRest(0, id), ErrIndexOutOfRange)
	assert.ErrorIs(t, s.SetBonePose(0, id), ErrIndexOutOfRange)
	assert.ErrorIs(t, s.SetBoneEnabled(0, false), ErrIndexOutOfRange)
	assert.ErrorIs(t, s.SetBoneDisableRest(0, true), ErrIndexOutOfRange)
	_, err := s.BoneGlobalPose(0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestUnparentBoneAndRest_RootIsNoop(t *testing.T) {
	s := New()
	require.NoError(t, s.AddBone("root"))
	rest := mathutil.NewTransform(mathutil.RotX(0.4), mathutil.Vec3{1, 2, 3})
	require.NoError(t, s.SetBoneRest(0, rest))

	require.NoError(t, s.UnparentBoneAndRest(0))

	got, _ := s.BoneRest(0)
	assert.Equal(t, rest, got)
}

func TestUnparentBoneAndRest_KeepsGlobalRest(t *testing.T) {
	s := New()
	chain(t, s, "a", "b", "c")
	require.NoError(t, s.SetBoneRest(0, mathutil.NewTransform(mathutil.RotZ(math.Pi/3), mathutil.Vec3{0, 1, 0})))
	require.NoError(t, s.SetBoneRest(1, mathutil.NewTransform(mathutil.RotX(0.7), mathutil.Vec3{0, 2, 0})))
	require.NoError(t, s.SetBoneRest(2, mathutil.Translation(0, 0, 3)))

	before, err := s.BoneGlobalRest(2)
	require.NoError(t, err)
	localBefore, _ := s.BoneRest(2)

	require.NoError(t, s.UnparentBoneAndRest(2))

	parent, _ := s.BoneParent(2)
	assert.Equal(t, NotFound, parent)
	after, _ := s.BoneGlobalRest(2)
	assert.True(t, before.IsEqualApprox(after, eps), "before %+v after %+v", before, after)
	localAfter, _ := s.BoneRest(2)
	assert.False(t, localBefore.IsEqualApprox(localAfter, eps))
}

func TestClearBones(t *testing.T) {
	s := New()
	chain(t, s, "a", "b")
	v := s.Version()

	s.ClearBones()

	assert.Equal(t, 0, s.BoneCount())
	assert.Equal(t, v+1, s.Version())
	assert.Empty(t, s.ProcessOrder())
	require.NoError(t, s.AddBone("a"))
}

func TestResetBonePoses(t *testing.T) {
	s := New()
	chain(t, s, "a")
	require.NoError(t, s.SetBonePose(0, mathutil.Translation(1, 0, 0)))
	require.NoError(t, s.SetBoneGlobalPoseOverride(0, mathutil.Translation(5, 0, 0), 1, true))
	s.Evaluate()

	s.ResetBonePoses()
	assert.True(t, s.IsDirty())
	s.Evaluate()

	pose, _ := s.BonePose(0)
	assert.Equal(t, mathutil.Identity(), pose)
	ov, err := s.BoneGlobalPoseOverride(0)
	require.NoError(t, err)
	assert.Equal(t, PoseOverride{Pose: mathutil.Identity()}, ov)
	g, _ := s.BoneGlobalPose(0)
	assert.Equal(t, mathutil.Identity(), g)
}

func TestUnparentBoneAndRest_SelfParented(t *testing.T) {
	s := New()
	chain(t, s, "a", "b")
	require.NoError(t, s.SetBoneRest(1, mathutil.Translation(1, 0, 0)))
	require.NoError(t, s.SetBoneParent(1, 1))

	require.NoError(t, s.UnparentBoneAndRest(1))

	rest, _ := s.BoneRest(1)
	assert.Equal(t, mathutil.Translation(1, 0, 0), rest)
	parent, _ := s.BoneParent(1)
	assert.Equal(t, NotFound, parent)
}

func TestBoneGlobalRest_CycleCountsEachBoneOnce(t *testing.T) {
	s := New()
	chain(t, s, "a", "b")
	require.NoError(t, s.SetBoneParent(0, 1))
	require.NoError(t, s.SetBoneRest(0, mathutil.Translation(1, 0, 0)))
	require.NoError(t, s.SetBoneRest(1, mathutil.Translation(0, 2, 0)))

	g, err := s.BoneGlobalRest(1)
	require.NoError(t, err)
	assert.Equal(t, mathutil.Translation(1, 2, 0), g)
}

func TestIsBoneParentOf(t *testing.T) {
	s := New()
	chain(t, s, "a", "b", "c")
	require.NoError(t, s.AddBone("d"))

	cases := []struct {
		bone, ancestor int
		want           bool
	}{
		{2, 1, true},
		{2, 0, true},
		{1, 0, true},
		{0, 2, false},
		{1, 1, false},
		{3, 0, false},
		{2, 9, false},
	}
	for _, tc := range cases {
		got, err := s.IsBoneParentOf(tc.bone, tc.ancestor)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%d of %d", tc.ancestor, tc.bone)
	}

	_, err := s.IsBoneParentOf(4, 0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	// A cycle answers without looping.
	require.NoError(t, s.SetBoneParent(0, 2))
	got, err := s.IsBoneParentOf(0, 1)
	require.NoError(t, err)
	assert.True(t, got)
	got, err = s.IsBoneParentOf(0, 3)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestLocalizeRests(t *testing.T) {
	s := New()
	chain(t, s, "a", "b", "c")
	globals := []mathutil.Transform{
		mathutil.NewTransform(mathutil.RotY(0.3), mathutil.Vec3{0, 1, 0}),
		mathutil.NewTransform(mathutil.RotX(0.9), mathutil.Vec3{0, 2, 1}),
		mathutil.NewTransform(mathutil.RotZ(-0.4), mathutil.Vec3{1, 3, 1}),
	}
	for i, g := range globals {
		require.NoError(t, s.SetBoneRest(i, g))
	}
	s.Evaluate()

	s.LocalizeRests()

	assert.True(t, s.IsDirty())
	root, _ := s.BoneRest(0)
	assert.Equal(t, globals[0], root)
	for i, want := range globals {
		got, err := s.BoneGlobalRest(i)
		require.NoError(t, err)
		assert.True(t, want.IsEqualApprox(got, eps), "bone %d", i)
	}
	local, _ := s.BoneRest(2)
	assert.True(t, globals[1].Inverse().Mul(globals[2]).IsEqualApprox(local, eps))
}

func TestGlobalTransform_Conversions(t *testing.T) {
	s := New(WithGlobalTransform(mathutil.NewTransform(mathutil.RotY(math.Pi/2), mathutil.Vec3{0, 0, 5})))

	bonePose := mathutil.Translation(1, 0, 0)
	world := s.BoneToWorld(bonePose)
	assert.True(t, world.Origin.Sub(mathutil.Vec3{0, 0, 4}).Len() < eps, "%v", world.Origin)
	assert.True(t, s.WorldToBone(world).IsEqualApprox(bonePose, eps))

	s.SetGlobalTransform(mathutil.Translation(0, 1, 0))
	assert.Equal(t, mathutil.Translation(0, 1, 0), s.GlobalTransform())
	assert.Equal(t, mathutil.Translation(1, 1, 0), s.BoneToWorld(bonePose))
	assert.Equal(t, mathutil.Translation(1, -1, 0), s.WorldToBone(bonePose))
}
